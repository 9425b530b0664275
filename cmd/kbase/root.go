package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "kbase",
		Short: "Keep vector indexes of knowledge base directories up to date and search them",
		Long: `kbase indexes every knowledge base (a directory under the root) into one
vector index, re-embedding only files whose content changed, and answers
semantic retrieval queries over it. It serves the index to AI assistants
through MCP tools and to programs through an HTTP API.

Configuration is read from --config, ./config.yaml or the user config file,
then overridden by a .env file and the environment
(KNOWLEDGE_BASES_ROOT_DIR, FAISS_INDEX_PATH, EMBEDDING_PROVIDER,
HUGGINGFACE_API_KEY, HUGGINGFACE_MODEL_NAME, OLLAMA_BASE_URL, OLLAMA_MODEL,
OPENAI_API_KEY, OPENAI_MODEL, ...).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (default ./config.yaml or the user config file)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newMCPCmd(opts),
		newServeCmd(opts),
		newIndexCmd(opts),
		newSearchCmd(opts),
		newListCmd(opts),
		newWatchCmd(opts),
		newStatusCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("kbase version %s\n", version)
		},
	}
}
