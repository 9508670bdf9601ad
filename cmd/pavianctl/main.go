// pavianctl — клиент PAVIAN Registry для терминала.
// Сессия хранится в зашифрованном файле; каждая команда открывает экран
// через route guard и рисует его в stdout, логи пишутся в stderr.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bigkaa/pavian-registry/internal/client/app"
	"github.com/bigkaa/pavian-registry/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// cli — общее состояние команд.
type cli struct {
	cfg *config.ClientConfig
	app *app.App
}

func rootCmd() *cobra.Command {
	c := &cli{}
	var serverURL, sessionFile string

	root := &cobra.Command{
		Use:           "pavianctl",
		Short:         "Cliente do registro de equipamentos PAVIAN",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
			}
			if cmd.Flags().Changed("server") {
				cfg.ServerURL = serverURL
			}
			if cmd.Flags().Changed("session-file") {
				cfg.SessionFile = sessionFile
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := app.New(cfg, config.SetupClientLogger(cfg))
			if err != nil {
				return err
			}
			c.cfg, c.app = cfg, a
			return nil
		},
	}

	root.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера (PAVIANCTL_SERVER)")
	root.PersistentFlags().StringVar(&sessionFile, "session-file", "", "файл сессии (PAVIANCTL_SESSION_FILE)")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.registerCmd(),
		c.whoamiCmd(),
		c.initAdminCmd(),
		c.openCmd(),
		c.pageCmd("dashboard", "Painel principal", "/dashboard"),
		c.productsCmd(),
		c.productCmd(),
		c.usersCmd(),
		c.codesCmd(),
		c.auditCmd(),
	)
	return root
}
