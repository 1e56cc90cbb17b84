package plugin

func init() {
	register(Descriptor{
		Name: "gau",
		Kind: KindTool,
		BuildCommand: func(target string) []string {
			return []string{"gau", target}
		},
	})
}
