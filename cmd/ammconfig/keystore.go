package main

import (
	"fmt"

	"github.com/AlexZinkM/amm-config/internal/credential"
	"github.com/AlexZinkM/amm-config/internal/crypto"
	"github.com/AlexZinkM/amm-config/internal/model"
	"github.com/AlexZinkM/amm-config/solana"

	"github.com/spf13/cobra"
)

func newKeystoreCmd(a *app) *cobra.Command {
	var logN int

	cmd := &cobra.Command{
		Use:   "keystore",
		Short: "Create and maintain encrypted operator keystores",
	}
	cmd.PersistentFlags().IntVar(&logN, "kdf-log-n", 18, "scrypt cost as a power of two")
	_ = cmd.PersistentFlags().MarkHidden("kdf-log-n")

	kdf := func() (model.KDFParams, error) {
		if logN < 10 || logN > 20 {
			return model.KDFParams{}, fmt.Errorf("kdf-log-n must be between 10 and 20, got %d", logN)
		}
		params := crypto.DefaultKDF
		params.N = 1 << logN
		return params, nil
	}

	cmd.AddCommand(
		newKeystoreNewCmd(a, kdf),
		newKeystoreImportCmd(a, kdf),
		newKeystorePasswdCmd(a, kdf),
	)
	return cmd
}

func newKeystoreNewCmd(a *app, kdf func() (model.KDFParams, error)) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a new operator key into a .cwt keystore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := kdf()
			if err != nil {
				return err
			}

			password, err := a.deps.newPassword(out)
			if err != nil {
				return err
			}
			defer clear(password)

			resp, err := solana.GenerateWallet(out, password, params)
			if err != nil {
				return err
			}
			printKeystore(cmd, resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "keystore file to write (.cwt)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newKeystoreImportCmd(a *app, kdf func() (model.KDFParams, error)) *cobra.Command {
	var from, out string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Encrypt a solana-keygen keypair file into a .cwt keystore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := kdf()
			if err != nil {
				return err
			}
			if from == "" {
				from = a.cfg.KeypairPath
			}

			password, err := a.deps.newPassword(out)
			if err != nil {
				return err
			}
			defer clear(password)

			resp, err := solana.ImportWallet(from, out, password, params)
			if err != nil {
				return err
			}
			printKeystore(cmd, resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "solana-keygen keypair file (default: --keypair)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "keystore file to write (.cwt)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newKeystorePasswdCmd(a *app, kdf func() (model.KDFParams, error)) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Re-encrypt a keystore under a new password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := kdf()
			if err != nil {
				return err
			}
			if file == "" {
				file = a.cfg.KeypairPath
			}
			if file, err = credential.ExpandPath(file); err != nil {
				return err
			}

			address, err := crypto.ReadWalletAddress(file)
			if err != nil {
				return err
			}

			oldPassword, err := a.deps.password(address)
			if err != nil {
				return err
			}
			defer clear(oldPassword)

			newPassword, err := a.deps.newPassword(address)
			if err != nil {
				return err
			}
			defer clear(newPassword)

			resp, err := solana.ChangePassword(file, oldPassword, newPassword, params)
			if err != nil {
				return err
			}
			printKeystore(cmd, resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "keystore to re-encrypt (default: --keypair)")
	return cmd
}

func printKeystore(cmd *cobra.Command, resp *model.KeystoreResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "keystore: %s\n", resp.Path)
	fmt.Fprintf(out, "address:  %s\n", resp.Address)
}
