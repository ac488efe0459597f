package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/application/services"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/bootstrap"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/auth"
)

var errMissingOrg = errors.New("--org (or ORG) is required")

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				fmt.Fprintf(cmd.OutOrStdout(), "✅ %s schema is up to date\n", app.DB.Dialect())
				return nil
			})
		},
	}
}

func (c *cli) pipelinesCmd() *cobra.Command {
	var manageType string
	cmd := &cobra.Command{
		Use:   "pipelines",
		Short: "List the organization's pipelines",
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := c.org()
			if err != nil {
				return err
			}
			var t models.EntityType
			if manageType != "" {
				if t, err = models.ParseEntityType(manageType); err != nil {
					return err
				}
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				pipelines, err := app.Services.Pipelines.List(ctx, org, t)
				if err != nil {
					return err
				}
				if c.jsonOutput() {
					return printJSON(cmd.OutOrStdout(), pipelines)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"ID", "Name", "Type", "View", "Stages", "Entities", "Version"})
				for _, p := range pipelines {
					tw.AppendRow(table.Row{p.ID, p.Name, p.ManageType, p.ViewID, len(p.Stages), p.RefCount(), p.Version})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&manageType, "type", "", "only pipelines of this entity type")
	return cmd
}

func (c *cli) boardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board <pipeline-id>",
		Short: "Show a pipeline as a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := c.org()
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				board, err := app.Services.Boards.Board(ctx, org, args[0])
				if err != nil {
					return err
				}
				if c.jsonOutput() {
					return printJSON(cmd.OutOrStdout(), board)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.SetTitle(board.Pipeline)
				tw.AppendHeader(table.Row{"Stage", "Entity", "Type", "Record"})
				for _, col := range board.Columns {
					if len(col.Entities) == 0 {
						tw.AppendRow(table.Row{col.StageName, "", "", ""})
						continue
					}
					for _, card := range col.Entities {
						tw.AppendRow(table.Row{col.StageName, card.EntityID, card.EntityType, cardLabel(card)})
					}
					tw.AppendSeparator()
				}
				tw.Render()
				return nil
			})
		},
	}
}

// cardLabel is a one-line description of a board card's record
func cardLabel(card models.BoardCard) string {
	switch d := card.Data.(type) {
	case *models.PersonCard:
		return d.FullName
	case *models.Company:
		return d.Name
	case *models.DealCard:
		return d.Title
	case *models.CustomerCard:
		if d.Name != "" {
			return d.Name
		}
		return d.Email
	case nil:
		return "(missing)"
	}
	return ""
}

func (c *cli) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Print dashboard metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := c.org()
			if err != nil {
				return err
			}
			return c.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				stats, err := app.Services.Dashboard.Stats(ctx, org)
				if err != nil {
					return err
				}
				if c.jsonOutput() {
					return printJSON(cmd.OutOrStdout(), stats)
				}

				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"Metric", "Value"})
				tw.AppendRows([]table.Row{
					{"Total leads", stats.Metrics.TotalLeads},
					{"Total revenue", fmt.Sprintf("%.2f", stats.Metrics.TotalRevenue)},
					{"Average deal value", fmt.Sprintf("%.2f", stats.Metrics.AvgDealValue)},
					{"Conversion rate", fmt.Sprintf("%.1f%%", stats.Metrics.ConversionRate)},
					{"People", stats.Counts.People},
					{"Companies", stats.Counts.Companies},
					{"Deals", stats.Counts.Deals},
				})
				tw.Render()

				if len(stats.LeadsByStatus) > 0 {
					st := table.NewWriter()
					st.SetOutputMirror(cmd.OutOrStdout())
					st.AppendHeader(table.Row{"Stage", "Leads"})
					for _, nv := range stats.LeadsByStatus {
						st.AppendRow(table.Row{nv.Name, nv.Value})
					}
					st.Render()
				}
				return nil
			})
		},
	}
}

func (c *cli) sweepCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Detach refs to records that no longer exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd.Context(), func(ctx context.Context, app *bootstrap.App) error {
				var results []services.SweepResult
				if all {
					res, err := app.Services.Sweeper.SweepAll(ctx)
					if err != nil {
						return err
					}
					results = res
				} else {
					org, err := c.org()
					if err != nil {
						return err
					}
					res, err := app.Services.Sweeper.SweepOrganization(ctx, org)
					if err != nil {
						return err
					}
					results = []services.SweepResult{*res}
				}

				if c.jsonOutput() {
					return printJSON(cmd.OutOrStdout(), results)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"Organization", "Scanned", "Changed", "Refs removed"})
				for _, r := range results {
					tw.AppendRow(table.Row{r.OrganizationID, r.PipelinesScanned, r.PipelinesChanged, r.RefsRemoved})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "sweep every organization")
	return cmd
}

func (c *cli) tokenCmd() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token for an organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := c.org()
			if err != nil {
				return err
			}
			tokens := auth.NewTokenManager(c.config().JWTSecret, ttl)
			token, err := tokens.GenerateToken(auth.TenantSession{UserID: userID, OrganizationID: org})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "cli", "user id carried in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
