// Voike CLI — инструмент командной строки для работы с FLOW-документами,
// запусками, расписаниями и VVM-программами через HTTP API.
//
// Использование:
//
//	voike [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	flow      Работа с flows: parse, plan, list, show, activate, version
//	plan      Просмотр скомпилированных планов
//	run       Управление запусками
//	schedule  Управление расписаниями
//	vvm       Исполнение VVM-программ
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voike/voike/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "voike",
		Short:         "Voike CLI — flow pipeline tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewFlowCmd(clientFn, outputFn),
		cli.NewPlanCmd(clientFn, outputFn),
		cli.NewRunCmd(clientFn, outputFn),
		cli.NewScheduleCmd(clientFn, outputFn),
		cli.NewVMCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
