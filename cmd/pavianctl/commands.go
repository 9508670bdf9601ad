package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bigkaa/pavian-registry/internal/client/app"
	"github.com/bigkaa/pavian-registry/internal/client/gateway"
	"github.com/bigkaa/pavian-registry/internal/domain/model"
)

// show печатает экран и возвращает err.
func show(cmd *cobra.Command, s app.Screen, err error) error {
	if out := s.String(); out != "" {
		fmt.Fprint(cmd.OutOrStdout(), out)
	}
	return err
}

// readPassword берёт пароль из флага или первой строки stdin.
func readPassword(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("PAVIANCTL_PASSWORD"); env != "" {
		return env, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Senha: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("чтение пароля: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readJSONFile читает JSON из файла ("-" — stdin).
func readJSONFile(cmd *cobra.Command, path string, dst any) error {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("открытие %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("разбор JSON из %s: %w", path, err)
	}
	return nil
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Entrar no sistema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			s, err := c.app.Login(cmd.Context(), email, pw)
			if err != nil {
				return show(cmd, s, errors.New(gateway.Message(err)))
			}
			return show(cmd, s, nil)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&password, "password", "", "senha (ou PAVIANCTL_PASSWORD, ou stdin)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sair do sistema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sessão encerrada")
			return nil
		},
	}
}

func (c *cli) registerCmd() *cobra.Command {
	var req gateway.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Cadastrar-se com um código de convite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := readPassword(cmd, req.Password)
			if err != nil {
				return err
			}
			req.Password = pw
			res, err := c.app.Register(cmd.Context(), req)
			if err != nil {
				return errors.New(gateway.Message(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id: %s)\n", res.Message, res.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "nome")
	cmd.Flags().StringVar(&req.Email, "email", "", "email")
	cmd.Flags().StringVar(&req.Password, "password", "", "senha")
	cmd.Flags().StringVar(&req.InviteCode, "code", "", "código de convite")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func (c *cli) whoamiCmd() *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Mostrar o usuário da sessão",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := c.app.Session()
			if s == nil {
				return errors.New("sessão ausente: pavianctl login")
			}
			u := &s.User
			if remote {
				me, err := c.app.Me(cmd.Context())
				if err != nil {
					return errors.New(gateway.Message(err))
				}
				u = me
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s approved=%t\n", u.Name, u.Email, u.Role, u.Approved)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "consultar o servidor (GET /auth/me)")
	return cmd
}

func (c *cli) initAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-admin",
		Short: "Inicializar o administrador padrão do servidor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.InitAdmin(cmd.Context())
			if err != nil {
				return errors.New(gateway.Message(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nemail: %s\nsenha: %s\ncódigo de convite: %s\n",
				res.Message, res.Email, res.Password, res.SampleInviteCode)
			return nil
		},
	}
}

func (c *cli) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Abrir uma tela pelo caminho (/dashboard, /products/{id}, /admin/users, ...)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.app.Open(cmd.Context(), args[0])
			return show(cmd, s, err)
		},
	}
}

// pageCmd — команда, открывающая фиксированный путь.
func (c *cli) pageCmd(use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.app.Open(cmd.Context(), path)
			return show(cmd, s, err)
		},
	}
}

func (c *cli) productsCmd() *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Listar equipamentos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := "/products"
			if filter != "" {
				p += "?q=" + url.QueryEscape(filter)
			}
			s, err := c.app.Open(cmd.Context(), p)
			return show(cmd, s, err)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "busca por tag, nº PAVIAN, região, complexo ou modelo")
	return cmd
}

func (c *cli) productCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product",
		Short: "Operações com um equipamento",
	}

	show1 := &cobra.Command{
		Use:   "show <id>",
		Short: "Detalhes do equipamento",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.app.Open(cmd.Context(), "/products/"+url.PathEscape(args[0]))
			return show(cmd, s, err)
		},
	}

	var createFile string
	create := &cobra.Command{
		Use:   "create",
		Short: "Cadastrar equipamento a partir de JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var data model.ProductData
			if err := readJSONFile(cmd, createFile, &data); err != nil {
				return err
			}
			s, err := c.app.CreateProduct(cmd.Context(), data)
			return show(cmd, s, err)
		},
	}
	create.Flags().StringVar(&createFile, "file", "-", "arquivo JSON (- para stdin)")

	var updateFile string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Atualizar campos do equipamento a partir de JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.ProductPatch
			if err := readJSONFile(cmd, updateFile, &patch); err != nil {
				return err
			}
			s, err := c.app.UpdateProduct(cmd.Context(), args[0], patch)
			return show(cmd, s, err)
		},
	}
	update.Flags().StringVar(&updateFile, "file", "-", "arquivo JSON (- para stdin)")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Excluir equipamento",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.app.DeleteProduct(cmd.Context(), args[0])
			return show(cmd, s, err)
		},
	}

	cmd.AddCommand(show1, create, update, del)
	return cmd
}

func (c *cli) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Gerenciar usuários",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.app.Open(cmd.Context(), "/admin/users")
			return show(cmd, s, err)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "approve <id>",
		Short: "Aprovar usuário",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.app.ApproveUser(cmd.Context(), args[0])
			return show(cmd, s, err)
		},
	})
	return cmd
}

func (c *cli) codesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "Códigos de convite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := c.app.Open(cmd.Context(), "/admin/codes")
			return show(cmd, s, err)
		},
	}

	var role string
	var maxUses, expiresHours int
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Gerar código de convite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := gateway.GenerateInviteCodeRequest{RoleAssigned: role}
			if cmd.Flags().Changed("max-uses") {
				req.MaxUses = &maxUses
			}
			if cmd.Flags().Changed("expires-hours") {
				req.ExpiresHours = &expiresHours
			}
			s, err := c.app.GenerateInviteCode(cmd.Context(), req)
			return show(cmd, s, err)
		},
	}
	generate.Flags().StringVar(&role, "role", "user", "função atribuída (admin, editor, user)")
	generate.Flags().IntVar(&maxUses, "max-uses", 1, "número máximo de usos")
	generate.Flags().IntVar(&expiresHours, "expires-hours", 168, "validade em horas")

	validate := &cobra.Command{
		Use:   "validate <code>",
		Short: "Verificar código de convite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.ValidateInviteCode(cmd.Context(), args[0])
			if err != nil {
				return errors.New(gateway.Message(err))
			}
			if !res.Valid {
				return errors.New(res.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Código válido, função: %s\n", res.Role)
			return nil
		},
	}

	cmd.AddCommand(generate, validate)
	return cmd
}

func (c *cli) auditCmd() *cobra.Command {
	var entityType string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Histórico de atividades",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := "/audit"
			if entityType != "" {
				p += "?entity_type=" + url.QueryEscape(entityType)
			}
			s, err := c.app.Open(cmd.Context(), p)
			return show(cmd, s, err)
		},
	}
	cmd.Flags().StringVar(&entityType, "entity-type", "", "product, user ou invite_code")
	return cmd
}
