package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mdung/RentMaster-sub002/internal/models"
)

func newLoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to RentMaster",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")

			token, err := apiClient.Login(username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			viper.Set("token", token)
			if err := viper.WriteConfig(); err != nil {
				fmt.Printf("Warning: failed to save token: %v\n", err)
			}
			fmt.Println("Login successful")
			return nil
		},
	}
	cmd.Flags().String("username", "", "Username")
	cmd.Flags().String("password", "", "Password")
	return cmd
}

func newContractsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "contracts",
		Short: "List contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			contracts, err := apiClient.ListContracts()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "ID\tTENANT\tUNIT\tRENT\t")
			for _, c := range contracts {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t\n",
					c.ID, c.TenantName, c.UnitLabel, c.RentAmount.StringFixed(2))
			}
			return w.Flush()
		},
	}
}

func newSchedulesCommand(kind models.ScheduleKind) *cobra.Command {
	use := "invoice-schedules"
	short := "Manage recurring invoice schedules"
	triggerUse := "generate [id]"
	if kind == models.KindReport {
		use = "report-schedules"
		short = "Manage scheduled reports"
		triggerUse = "run [id]"
	}

	root := &cobra.Command{Use: use, Short: short}

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSchedules(kind)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   triggerUse,
		Short: "Trigger a manual run, leaving the schedule untouched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rec, err := apiClient.TriggerNow(kind, id)
			if err != nil {
				return err
			}
			fmt.Printf("Run %s finished: %s (%s)\n", rec.RunID, rec.Outcome, rec.Detail)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "activate [id]",
		Short: "Activate a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setActive(kind, args[0], true)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "deactivate [id]",
		Short: "Deactivate a schedule, preserving its cadence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setActive(kind, args[0], false)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "generations [id]",
		Short: "Show recent generation runs for a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			recs, err := apiClient.ListGenerations(kind, id)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)
			fmt.Fprintln(w, "TRIGGERED\tTRIGGER\tOUTCOME\tDETAIL\t")
			for _, rec := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
					rec.TriggeredAt.Format("2006-01-02 15:04"), rec.Trigger, rec.Outcome, rec.Detail)
			}
			return w.Flush()
		},
	})

	return root
}

func listSchedules(kind models.ScheduleKind) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.TabIndent)

	if kind == models.KindInvoice {
		scheds, err := apiClient.ListInvoiceSchedules()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tCONTRACT\tFREQUENCY\tNEXT\tACTIVE\t")
		for _, s := range scheds {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%t\t\n",
				s.ID, s.ContractID, s.Recurrence.Frequency,
				s.Recurrence.NextOccurrence.Format("2006-01-02"), s.Recurrence.Active)
		}
	} else {
		scheds, err := apiClient.ListReportSchedules()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tFREQUENCY\tNEXT\tACTIVE\t")
		for _, s := range scheds {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\t\n",
				s.ID, s.Name, s.ReportType, s.Recurrence.Frequency,
				s.Recurrence.NextOccurrence.Format("2006-01-02 15:04"), s.Recurrence.Active)
		}
	}

	return w.Flush()
}

func setActive(kind models.ScheduleKind, rawID string, active bool) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	if err := apiClient.SetActive(kind, id, active); err != nil {
		return err
	}
	if active {
		fmt.Println("Schedule activated")
	} else {
		fmt.Println("Schedule deactivated")
	}
	return nil
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid schedule ID: %v", err)
	}
	return uint(id), nil
}
