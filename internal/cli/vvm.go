package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

// NewVMCmd создаёт группу команд для работы с VVM.
func NewVMCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vvm",
		Short: "Run VVM programs",
	}

	cmd.AddCommand(newVMRunCmd(clientFn, outputFn))

	return cmd
}

func newVMRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var maxSteps int

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Assemble and execute a VVM program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			program, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read program file: %w", err)
			}

			res, err := client.ExecuteVM(string(program), maxSteps)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(res.Registers))
			for name := range res.Registers {
				names = append(names, name)
			}
			sort.Strings(names)

			rows := make([][]string, len(names))
			for i, name := range names {
				rows[i] = []string{name, fmt.Sprintf("%v", res.Registers[name])}
			}

			out.Print([]string{"REGISTER", "VALUE"}, rows, res)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "Execution step limit (server default if 0)")

	return cmd
}
