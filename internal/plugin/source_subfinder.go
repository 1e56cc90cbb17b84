package plugin

func init() {
	register(Descriptor{
		Name: "subfinder",
		Kind: KindTool,
		BuildCommand: func(target string) []string {
			return []string{"subfinder", "-d", target, "-silent"}
		},
	})
}
