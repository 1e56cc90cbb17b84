package plugin

func init() {
	register(Descriptor{
		Name: "waybackurls",
		Kind: KindTool,
		BuildCommand: func(target string) []string {
			// The teacher piped the target through a shell ("echo %s |
			// waybackurls"); the Tool contract here forbids shell routing
			// (spec.md §6), and waybackurls accepts the domain as a bare
			// positional argument, so that indirection is unnecessary.
			return []string{"waybackurls", target}
		},
	})
}
