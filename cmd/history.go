// Package cmd implements the command-line interface for airfeed.
package cmd

import (
	"os"

	"github.com/airfeed/airfeed/color"
	"github.com/airfeed/airfeed/history"
	"github.com/airfeed/airfeed/style"
	"github.com/airfeed/airfeed/util"
	"github.com/airfeed/airfeed/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringP("search", "s", "", "Fuzzy filter for the listed playlist URIs")
	historyCmd.Flags().BoolP("clear", "c", false, "Forget every remembered playlist URI")
	historyCmd.MarkFlagsMutuallyExclusive("search", "clear")

	historyCmd.SetOut(os.Stdout)
}

// historyCmd lists previously played playlist URIs, most played first.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display previously played playlist URIs",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("clear")) {
			handleErr(util.Delete(where.History()))
			cmd.Println("history cleared")
			return
		}

		search := lo.Must(cmd.Flags().GetString("search"))
		uris := history.List()
		if search != "" {
			uris = history.SuggestMany(search)
		}

		if len(uris) == 0 {
			cmd.Println(style.Faint("nothing played yet"))
			return
		}

		for _, uri := range uris {
			cmd.Println(style.Fg(color.Yellow)(uri))
		}
	},
}
