package main

import (
	"net/url"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/landpermit-cli/internal/config"
)

const maskedSecret = "****"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(maskSecrets(*cfg)); err != nil {
			return eris.Wrap(err, "config: encode yaml")
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// maskSecrets returns a copy of c with credentials replaced.
func maskSecrets(c config.Config) config.Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return maskedSecret
	}
	c.Geocode.APIKey = mask(c.Geocode.APIKey)
	c.Telegram.Token = mask(c.Telegram.Token)
	c.Cache.DatabaseURL = mask(c.Cache.DatabaseURL)
	c.Proxy.HTTP = maskUserinfo(c.Proxy.HTTP)
	c.Proxy.HTTPS = maskUserinfo(c.Proxy.HTTPS)
	c.Metrics.WebhookURL = maskPath(c.Metrics.WebhookURL)
	return c
}

// maskUserinfo hides the credentials of a proxy URL and keeps its host.
func maskUserinfo(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return maskedSecret
	}
	if u.User != nil {
		u.User = url.User(maskedSecret)
	}
	return u.String()
}

// maskPath keeps only the scheme and host of a webhook URL. Webhook tokens
// live in the path or query.
func maskPath(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return maskedSecret
	}
	masked := url.URL{Scheme: u.Scheme, Host: u.Host}
	if u.User != nil {
		masked.User = url.User(maskedSecret)
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" {
		masked.Path = "/" + maskedSecret
	}
	return masked.String()
}
