package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewPlanCmd создаёт группу команд для работы с планами.
func NewPlanCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect compiled plans",
	}

	cmd.AddCommand(
		newPlanListCmd(clientFn, outputFn),
		newPlanShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newPlanListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var flowID string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List compiled plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			plans, err := client.ListPlans(ListPlansOpts{FlowID: flowID, Limit: limit})
			if err != nil {
				return err
			}

			headers := []string{"ID", "FLOW_NAME", "VERSION", "NODES", "EDGES", "COST", "CREATED"}
			rows := make([][]string, len(plans))
			for i, p := range plans {
				rows[i] = []string{
					p.ID, p.FlowName, strconv.Itoa(p.Version),
					strconv.Itoa(p.NodeCount), strconv.Itoa(p.EdgeCount),
					strconv.Itoa(p.TotalCost), p.CreatedAt,
				}
			}

			out.Print(headers, rows, plans)
			return nil
		},
	}

	cmd.Flags().StringVar(&flowID, "flow-id", "", "Filter by flow ID")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newPlanShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show plan details with the execution graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			plan, err := client.GetPlan(args[0])
			if err != nil {
				return err
			}

			// Граф осмыслен только в JSON-виде
			out.JSON(plan)
			return nil
		},
	}
}
