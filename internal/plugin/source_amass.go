package plugin

func init() {
	register(Descriptor{
		Name: "amass",
		Kind: KindTool,
		BuildCommand: func(target string) []string {
			// Active enumeration against the target is explicitly out of
			// scope (spec.md §1 Non-goals), so only amass's passive mode
			// is ever invoked.
			return []string{"amass", "enum", "-passive", "-d", target}
		},
	})
}
