package main

import (
	"context"
	"database/sql"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	auditrepo "my-friends/backend/internal/audit/repository"
	"my-friends/backend/internal/config"
	"my-friends/backend/internal/db"
	taskdomain "my-friends/backend/internal/task/domain"
	taskrepo "my-friends/backend/internal/task/repository"
	userrepo "my-friends/backend/internal/user/repository"
)

type stores struct {
	users  userrepo.Repository
	tasks  taskrepo.Repository
	audits auditrepo.Repository
	conn   *sql.DB
}

func (s *stores) Close() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

func openStores() (*stores, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.StorageBackend == "postgres" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:  userrepo.NewPostgresRepository(conn),
			tasks:  taskrepo.NewPostgresRepository(conn),
			audits: auditrepo.NewPostgresRepository(conn),
			conn:   conn,
		}, nil
	}
	users, err := userrepo.NewJSONFileRepository(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	tasks, err := taskrepo.NewJSONFileRepository(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	audits, err := auditrepo.NewJSONFileRepository(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return &stores{users: users, tasks: tasks, audits: audits}, nil
}

func newUsersCmd() *cobra.Command {
	users := &cobra.Command{Use: "users", Short: "User accounts"}
	users.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStores()
			if err != nil {
				return err
			}
			defer s.Close()

			list, err := s.users.List(context.Background())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPHONE\tROLE\tLOCATION\tCREATED")
			for _, u := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					u.ID, u.Name, u.Phone, u.Role, u.Location, u.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	})
	return users
}

func newTasksCmd() *cobra.Command {
	var status string
	tasks := &cobra.Command{Use: "tasks", Short: "Marketplace tasks"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks, optionally filtered by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStores()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := context.Background()
			var items []taskdomain.Task
			if status != "" {
				items, err = s.tasks.ListByStatus(ctx, taskdomain.Status(status))
			} else {
				items, err = s.tasks.List(ctx)
			}
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tTOTAL\tREQUESTER\tHELPER\tPAYMENT")
			for _, t := range items {
				helper := "-"
				if t.HelperName != nil {
					helper = *t.HelperName
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\t%s\n",
					t.ID, t.Title, t.Status, t.TotalCost, t.RequesterName, helper, t.PaymentStatus)
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&status, "status", "", "filter by status: open, in-progress, completed")
	tasks.AddCommand(list)
	return tasks
}

func newAuditCmd() *cobra.Command {
	var limit int
	audit := &cobra.Command{Use: "audit", Short: "Audit trail"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent audit entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStores()
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.audits.List(context.Background(), limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tUSER\tACTION\tRESOURCE\tIP")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.CreatedAt.Format(time.RFC3339), e.UserID, e.Action, e.Resource, e.IP)
			}
			return w.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "maximum entries to show (0 = all)")
	audit.AddCommand(list)
	return audit
}
