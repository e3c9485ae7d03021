package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// NewFlowCmd создаёт группу команд для работы с flows.
func NewFlowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Manage flows",
	}

	cmd.AddCommand(
		newFlowListCmd(clientFn, outputFn),
		newFlowShowCmd(clientFn, outputFn),
		newFlowParseCmd(clientFn, outputFn),
		newFlowPlanCmd(clientFn, outputFn),
		newFlowActivateCmd(clientFn, outputFn),
		newFlowVersionCmd(clientFn, outputFn),
	)

	return cmd
}

func newFlowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			flows, err := client.ListFlows()
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "ACTIVE", "CREATED"}
			rows := make([][]string, len(flows))
			for i, f := range flows {
				rows[i] = []string{f.ID, f.Name, strconv.FormatBool(f.IsActive), f.CreatedAt}
			}

			out.Print(headers, rows, flows)
			return nil
		},
	}
}

func newFlowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show flow details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			flow, err := client.GetFlow(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "NAME", "ACTIVE", "CREATED"},
				[][]string{{flow.ID, flow.Name, strconv.FormatBool(flow.IsActive), flow.CreatedAt}},
				flow,
			)
			return nil
		},
	}
}

func newFlowParseCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a FLOW file and report errors without saving",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read flow file: %w", err)
			}

			res, err := client.ParseFlow(string(source), strict)
			if err != nil {
				return err
			}

			for _, warn := range res.Warnings {
				out.Warning("%s", warn)
			}

			if !res.OK {
				for _, e := range res.Errors {
					out.Error("%s:%d:%d: %s", args[0], e.Line, e.Col, e.Message)
				}
				return fmt.Errorf("parse failed with %d error(s)", len(res.Errors))
			}

			out.Success("Flow %q is valid", res.FlowName)

			headers := []string{"STEP", "OP"}
			rows := make([][]string, len(res.Steps))
			for i, s := range res.Steps {
				rows[i] = []string{s.Name, s.Op}
			}
			out.Print(headers, rows, res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")

	return cmd
}

func newFlowPlanCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "plan FILE",
		Short: "Compile a FLOW file into an execution plan and save it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			source, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read flow file: %w", err)
			}

			plan, err := client.PlanFlow(string(source))
			if err != nil {
				return err
			}

			for _, warn := range plan.Warnings {
				out.Warning("%s", warn)
			}

			out.Success("Plan compiled: %s (flow %q, version %d)", plan.ID, plan.FlowName, plan.Version)
			out.Print(
				[]string{"ID", "FLOW_NAME", "VERSION", "NODES", "EDGES", "COST"},
				[][]string{{
					plan.ID, plan.FlowName, strconv.Itoa(plan.Version),
					strconv.Itoa(plan.NodeCount), strconv.Itoa(plan.EdgeCount), strconv.Itoa(plan.TotalCost),
				}},
				plan,
			)
			return nil
		},
	}
}

func newFlowActivateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var active string

	cmd := &cobra.Command{
		Use:   "activate ID",
		Short: "Enable or disable a flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			b, err := strconv.ParseBool(active)
			if err != nil {
				return fmt.Errorf("invalid value for --active: %s", active)
			}

			flow, err := client.SetFlowActive(args[0], b)
			if err != nil {
				return err
			}

			out.Success("Flow updated")
			out.Print(
				[]string{"ID", "NAME", "ACTIVE", "CREATED"},
				[][]string{{flow.ID, flow.Name, strconv.FormatBool(flow.IsActive), flow.CreatedAt}},
				flow,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&active, "active", "true", "Active status (true/false)")

	return cmd
}

func newFlowVersionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var version int

	cmd := &cobra.Command{
		Use:   "version FLOW_ID",
		Short: "Show flow version source (latest by default)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var v *FlowVersionResponse
			var err error
			if cmd.Flags().Changed("version") {
				v, err = client.GetVersion(args[0], version)
			} else {
				v, err = client.GetLatestVersion(args[0])
			}
			if err != nil {
				return err
			}

			out.Success("Flow %s, version %d (%s)", v.FlowID, v.Version, v.CreatedAt)
			fmt.Fprint(os.Stdout, v.Source)
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", 0, "Version number (latest if not specified)")

	return cmd
}
