package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"database/sql"
	"encoding/pem"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/activitybus/stores/activitydb"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/paymentbus/stores/paymentdb"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/subscriptionbus/stores/subscriptiondb"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/tenantbus/stores/tenantdb"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus/stores/userdb"
	"github.com/jcpaschoal/tenantcrm/business/sdk/migrate"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/business/types/name"
	"github.com/jcpaschoal/tenantcrm/business/types/password"
	"github.com/jcpaschoal/tenantcrm/business/types/role"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/jcpaschoal/tenantcrm/foundation/mongodb"
	"github.com/spf13/cobra"
)

func migrateCmd(log *logger.Logger, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema and create the activity indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrate.Migrate(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			mdb, err := openMongo(ctx, cfg)
			if err != nil {
				return err
			}
			defer mongodb.Close(context.Background(), mdb)

			if err := activitydb.NewStore(log, mdb).EnsureIndexes(ctx); err != nil {
				return fmt.Errorf("activity indexes: %w", err)
			}

			fmt.Println("migrations complete")
			return nil
		},
	}
}

func seedPlansCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-plans",
		Short: "Insert the default subscription plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrate.Seed(ctx, db); err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			fmt.Println("seed data complete")
			return nil
		},
	}
}

func createTenantCmd(log *logger.Logger, cfg *Config) *cobra.Command {
	var tenantName, slug, email string
	var maxUsers int

	cmd := cobra.Command{
		Use:   "create-tenant",
		Short: "Create a tenant with a trial subscription",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			n, err := name.Parse(tenantName)
			if err != nil {
				return fmt.Errorf("name: %w", err)
			}

			nt := tenantbus.NewTenant{
				Name:     n,
				Slug:     slug,
				MaxUsers: maxUsers,
			}

			if email != "" {
				addr, err := mail.ParseAddress(email)
				if err != nil {
					return fmt.Errorf("email: %w", err)
				}
				nt.Email = addr
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			tx, err := sqldb.NewBeginner(db).Begin()
			if err != nil {
				return fmt.Errorf("begin: %w", err)
			}

			defer func() {
				if errTx := tx.Rollback(); errTx != nil && err == nil && !errors.Is(errTx, sql.ErrTxDone) {
					err = fmt.Errorf("rollback: %w", errTx)
				}
			}()

			tenantBus, err := tenantbus.NewCore(log, tenantdb.NewStore(log, db)).NewWithTx(tx)
			if err != nil {
				return err
			}

			paymentBus := paymentbus.NewCore(paymentdb.NewStore(log, db))
			subscriptionBus, err := subscriptionbus.NewCore(log, paymentBus, subscriptiondb.NewStore(log, db), false).NewWithTx(tx)
			if err != nil {
				return err
			}

			ten, err := tenantBus.Create(cmd.Context(), nt)
			if err != nil {
				return fmt.Errorf("create tenant: %w", err)
			}

			sub, err := subscriptionBus.CreateTrial(cmd.Context(), ten.ID)
			if err != nil {
				return fmt.Errorf("create trial: %w", err)
			}

			if err := tx.Commit(); err != nil {
				return fmt.Errorf("commit: %w", err)
			}

			fmt.Printf("tenant created\nID: %s\nSlug: %s\nTrial ends: %s\n", ten.ID, ten.Slug, formatEnd(sub))
			return nil
		},
	}

	cmd.Flags().StringVar(&tenantName, "name", "", "tenant display name")
	cmd.Flags().StringVar(&slug, "slug", "", "unique url slug")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	cmd.Flags().IntVar(&maxUsers, "max-users", tenantbus.DefaultMaxUsers, "seat limit")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("slug")

	return &cmd
}

func createUserCmd(log *logger.Logger, cfg *Config) *cobra.Command {
	var userName, email, pass, roleName, tenantID string

	cmd := cobra.Command{
		Use:   "create-user",
		Short: "Create a platform or tenant user",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := name.Parse(userName)
			if err != nil {
				return fmt.Errorf("name: %w", err)
			}

			addr, err := mail.ParseAddress(email)
			if err != nil {
				return fmt.Errorf("email: %w", err)
			}

			p, err := password.Parse(pass)
			if err != nil {
				return fmt.Errorf("password: %w", err)
			}

			r, err := role.Parse(roleName)
			if err != nil {
				return fmt.Errorf("role: %w", err)
			}

			nu := userbus.NewUser{
				Name:     n,
				Email:    *addr,
				Role:     r,
				Password: p,
			}

			switch {
			case r.IsPlatform():
				if tenantID != "" {
					return fmt.Errorf("role %s does not belong to a tenant", r)
				}
			default:
				id, err := uuid.Parse(tenantID)
				if err != nil {
					return fmt.Errorf("tenant-id: %w", err)
				}
				nu.TenantID = id
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()

			if nu.TenantID != uuid.Nil {
				tenantBus := tenantbus.NewCore(log, tenantdb.NewStore(log, db))
				if err := tenantBus.AddUsers(ctx, nu.TenantID, 1); err != nil {
					return fmt.Errorf("take seat: %w", err)
				}
			}

			usr, err := userbus.NewCore(userdb.NewStore(log, db)).Create(ctx, nu)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			fmt.Printf("user created\nID: %s\nEmail: %s\nRole: %s\n", usr.ID, usr.Email.Address, usr.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&userName, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&pass, "password", "", "login password")
	cmd.Flags().StringVar(&roleName, "role", role.User.String(), "one of SAAS_OWNER, SAAS_ADMIN, TENANT_ADMIN, MANAGER, USER")
	cmd.Flags().StringVar(&tenantID, "tenant-id", "", "tenant of a tenant scoped role")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return &cmd
}

// genKeyCmd writes a new RSA private key named after its key id into the
// keys folder.
func genKeyCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "genkey",
		Short: "Generate a token signing key",
		RunE: func(cmd *cobra.Command, args []string) error {
			privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
			if err != nil {
				return fmt.Errorf("generating key: %w", err)
			}

			if err := os.MkdirAll(cfg.Auth.KeysFolder, 0o700); err != nil {
				return fmt.Errorf("creating keys folder: %w", err)
			}

			kid := uuid.NewString()
			fileName := filepath.Join(cfg.Auth.KeysFolder, kid+".pem")

			file, err := os.OpenFile(fileName, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
			if err != nil {
				return fmt.Errorf("creating private file: %w", err)
			}
			defer file.Close()

			block := pem.Block{
				Type:  "RSA PRIVATE KEY",
				Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
			}

			if err := pem.Encode(file, &block); err != nil {
				return fmt.Errorf("encoding to private file: %w", err)
			}

			fmt.Printf("private key generated\nKID: %s\nFile: %s\n", kid, fileName)
			return nil
		},
	}
}

func formatEnd(sub subscriptionbus.Subscription) string {
	if sub.EndDate == nil {
		return "-"
	}
	return sub.EndDate.Format(time.RFC3339)
}
