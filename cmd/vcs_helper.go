package cmd

import (
	"os"

	"github.com/sanix-darker/resolv/internal/config"
	"github.com/sanix-darker/resolv/internal/vcs"
	_ "github.com/sanix-darker/resolv/internal/vcs/github"
)

// reviewClient builds the review-platform client from config and env.
// It returns nil when no token is available, in which case every
// discussion is resolved against the local checkout only.
func reviewClient(conf config.Config) vcs.ReviewClient {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = conf.Viper.GetString("github.token")
	}
	if token == "" {
		return nil
	}

	client, err := vcs.Get("github", token, conf.Viper.GetString("github.base_url"))
	if err != nil {
		return nil
	}
	return client
}
