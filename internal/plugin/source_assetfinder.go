package plugin

func init() {
	register(Descriptor{
		Name: "assetfinder",
		Kind: KindTool,
		BuildCommand: func(target string) []string {
			return []string{"assetfinder", "--subs-only", target}
		},
	})
}
