package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kambire/Geeks-S3-Api-upload/credstore"
	"github.com/kambire/Geeks-S3-Api-upload/uploadtypes"
)

const (
	FlagAccessKeyID     = "access-key-id"
	FlagSecretAccessKey = "secret-access-key"
	FlagEndpoint        = "endpoint"
	FlagBucket          = "bucket"
	FlagShow            = "show"
)

// ConfigureCmd creates the command that saves or displays the stored
// credentials. All four fields are required when saving.
func ConfigureCmd() *cobra.Command {
	var (
		accessKeyID     string
		secretAccessKey string
		endpoint        string
		bucket          string
		show            bool
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Save credentials for an S3-compatible bucket",
		Long: `Configure stores the access key pair, endpoint URL, and bucket name in
the user's configuration directory. Uploads read these credentials on
every invocation, so configure only needs to run once per bucket.`,
		Example: `  s3upload configure --access-key-id KEY --secret-access-key SECRET \
    --endpoint https://account.r2.cloudflarestorage.com --bucket backups
  s3upload configure --show`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := credstore.Default()

			if show {
				creds, err := store.Load()
				if err != nil {
					return err
				}
				fmt.Printf("Access key ID:     %s\n", creds.AccessKeyID)
				fmt.Printf("Secret access key: %s\n", redactSecret(creds.SecretAccessKey))
				fmt.Printf("Endpoint:          %s\n", creds.Endpoint)
				fmt.Printf("Bucket:            %s\n", creds.Bucket)
				fmt.Printf("Stored at:         %s\n", store.Path())
				return nil
			}

			creds := uploadtypes.Credentials{
				AccessKeyID:     accessKeyID,
				SecretAccessKey: secretAccessKey,
				Endpoint:        endpoint,
				Bucket:          bucket,
			}
			if err := store.Save(creds); err != nil {
				return err
			}
			fmt.Printf("Credentials saved to %s\n", store.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&accessKeyID, FlagAccessKeyID, "", "access key ID for the bucket")
	cmd.Flags().StringVar(&secretAccessKey, FlagSecretAccessKey, "", "secret access key for the bucket")
	cmd.Flags().StringVar(&endpoint, FlagEndpoint, "", "endpoint URL of the S3-compatible store")
	cmd.Flags().StringVar(&bucket, FlagBucket, "", "destination bucket name")
	cmd.Flags().BoolVar(&show, FlagShow, false, "display the stored credentials instead of saving")

	return cmd
}

// redactSecret hides all but the last four characters of a secret.
func redactSecret(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
