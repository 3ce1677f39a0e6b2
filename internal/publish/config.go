package publish

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/config"
)

// FromConfig builds the Publisher selected by publish.backend.
func FromConfig(ctx context.Context, cfg *config.Config) (Publisher, error) {
	switch cfg.Publish.Backend {
	case "", "github":
		return NewGitHubPublisher(GitHubConfig{
			Token:       cfg.GitHub.Token,
			APIBaseURL:  cfg.GitHub.APIBaseURL,
			Owner:       cfg.GitHub.Owner,
			Repo:        cfg.GitHub.Repo,
			Branch:      cfg.GitHub.Branch,
			RootDir:     cfg.GitHub.RootDir,
			SiteBaseURL: cfg.GitHub.SiteBaseURL,
		}), nil
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3.Region))
		if err != nil {
			return nil, eris.Wrap(err, "publish: load aws config")
		}
		return NewS3Publisher(s3.NewFromConfig(awsCfg), S3Config{
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			Prefix:        cfg.S3.Prefix,
			PublicBaseURL: cfg.S3.PublicBaseURL,
		}), nil
	default:
		return nil, eris.Errorf("publish: unknown backend %q", cfg.Publish.Backend)
	}
}
