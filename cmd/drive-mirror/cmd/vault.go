package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bianoble/drive-mirror/internal/vault"
)

var (
	vaultEncryptIn  string
	vaultEncryptOut string
	vaultCheckIn    string
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage the encrypted credentials bundle",
}

var vaultEncryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a client-secret file into a vault bundle",
	Long: `Encrypts the OAuth client-secret file with a password so the plaintext
does not have to live on disk. Point encrypted_credentials_file at the
output and remove the plaintext file afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		plaintext, err := os.ReadFile(vaultEncryptIn)
		if err != nil {
			return fmt.Errorf("reading %s: %w", vaultEncryptIn, err)
		}
		defer vault.Zero(plaintext)

		password, err := promptPassword("Vault password: ")
		if err != nil {
			return err
		}
		defer vault.Zero(password)

		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		defer vault.Zero(confirm)

		if !bytes.Equal(password, confirm) {
			return errors.New("passwords do not match")
		}
		if len(password) == 0 {
			return errors.New("password must not be empty")
		}

		bundle, err := vault.Encrypt(password, plaintext)
		if err != nil {
			return fmt.Errorf("encrypting: %w", err)
		}

		if err := os.WriteFile(vaultEncryptOut, bundle, 0600); err != nil {
			return fmt.Errorf("writing %s: %w", vaultEncryptOut, err)
		}

		info("Wrote %s", vaultEncryptOut)
		info("Set encrypted_credentials_file: %s in the config and delete %s.", vaultEncryptOut, vaultEncryptIn)
		return nil
	},
}

var vaultCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that a vault bundle decrypts with the given password",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := os.ReadFile(vaultCheckIn)
		if err != nil {
			return fmt.Errorf("reading %s: %w", vaultCheckIn, err)
		}

		password, err := promptPassword("Vault password: ")
		if err != nil {
			return err
		}
		defer vault.Zero(password)

		secret, err := vault.Decrypt(password, bundle)
		if err != nil {
			return fmt.Errorf("checking %s: %w", vaultCheckIn, err)
		}
		vault.Zero(secret)

		info("%s decrypts correctly (%d bytes of plaintext).", vaultCheckIn, len(secret))
		return nil
	},
}

func init() {
	vaultEncryptCmd.Flags().StringVar(&vaultEncryptIn, "in", "credentials.json", "plaintext client-secret file")
	vaultEncryptCmd.Flags().StringVar(&vaultEncryptOut, "out", "credentials.json.vault", "encrypted bundle to write")

	vaultCheckCmd.Flags().StringVar(&vaultCheckIn, "in", "credentials.json.vault", "encrypted bundle to verify")

	vaultCmd.AddCommand(vaultEncryptCmd)
	vaultCmd.AddCommand(vaultCheckCmd)
	rootCmd.AddCommand(vaultCmd)
}
