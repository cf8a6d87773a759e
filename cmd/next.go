// Package cmd implements the command-line interface for airfeed.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/airfeed/airfeed/color"
	"github.com/airfeed/airfeed/key"
	"github.com/airfeed/airfeed/media"
	"github.com/airfeed/airfeed/playlist"
	"github.com/airfeed/airfeed/scheduler"
	"github.com/airfeed/airfeed/style"
	"github.com/airfeed/airfeed/util"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// nextEntry describes one upcoming playback item.
type nextEntry struct {
	URI      string `json:"uri" jsonschema:"description=URI of the upcoming entry."`
	Status   string `json:"status,omitempty" jsonschema:"description=Resolution status for entries already held by the pipeline.,enum=unresolved,enum=resolving,enum=resolved,enum=failed,enum=timeout"`
	Buffered bool   `json:"buffered" jsonschema:"description=Whether the entry is already held by the prefetch pipeline."`
}

// nextOutput is the structured result of the next command.
type nextOutput struct {
	Playlist string      `json:"playlist" jsonschema:"description=URI of the inspected playlist."`
	Entries  []nextEntry `json:"entries" jsonschema:"description=Upcoming entries in playback order."`
}

func init() {
	rootCmd.AddCommand(nextCmd)

	nextCmd.Flags().IntP("count", "n", 0, "How many upcoming entries to list, 0 uses the configured default")
	nextCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	nextCmd.SetOut(os.Stdout)
}

// nextCmd previews the upcoming playback order of a playlist.
var nextCmd = &cobra.Command{
	Use:     "next [playlist]",
	Short:   "Preview the upcoming playback order of a playlist",
	Args:    cobra.ExactArgs(1),
	Example: "  airfeed next ./library.m3u -n 5",
	Run: func(cmd *cobra.Command, args []string) {
		count := lo.Must(cmd.Flags().GetInt("count"))
		if count <= 0 {
			count = viper.GetInt(key.CliNextN)
		}

		cfg, err := playlist.ConfigFromViper(args[0])
		handleErr(err)

		src, err := playlist.New(cfg, media.StandardFactory{}, playlist.NewFetcher(playlist.IsAudioFile), scheduler.Async{})
		handleErr(err)
		defer src.Close()

		output := collectNext(src, args[0], count)

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			lo.Must0(encoder.Encode(output))
			return
		}

		for i, entry := range output.Entries {
			ordinal := style.Faint(fmt.Sprintf("%2d.", i+1))
			if entry.Buffered {
				cmd.Printf("%s %s %s\n", ordinal, statusStyle(entry.Status)("["+entry.Status+"]"), entry.URI)
				continue
			}
			cmd.Printf("%s %s\n", ordinal, entry.URI)
		}

		if len(output.Entries) == 0 {
			cmd.Println(style.Faint(fmt.Sprintf("playlist %q has no upcoming entries", args[0])))
			return
		}
		cmd.Println(style.Faint("showing " + util.Quantify(len(output.Entries), "entry", "entries")))
	},
}

// collectNext snapshots the pipeline state and the predictable traversal tail.
func collectNext(src *playlist.Source, uri string, count int) nextOutput {
	output := nextOutput{Playlist: uri}

	for _, req := range src.CopyQueue() {
		if len(output.Entries) >= count {
			return output
		}
		output.Entries = append(output.Entries, nextEntry{
			URI:      req.URI(),
			Status:   req.Status().String(),
			Buffered: true,
		})
	}

	for _, upcoming := range src.Traversal().Peek(count - len(output.Entries)) {
		output.Entries = append(output.Entries, nextEntry{URI: upcoming})
	}
	return output
}

func statusStyle(status string) func(string) string {
	switch status {
	case media.StatusResolved.String():
		return style.Fg(color.Green)
	case media.StatusResolving.String():
		return style.Fg(color.Cyan)
	case media.StatusFailed.String(), media.StatusTimeout.String():
		return style.Fg(color.Red)
	default:
		return style.Fg(color.Yellow)
	}
}

func init() {
	nextCmd.AddCommand(nextSchemaCmd)
}

// nextSchemaCmd generates the JSON schema for structured next command outputs.
var nextSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate the JSON schema for structured next command outputs",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true

		schema := reflector.Reflect(&nextOutput{})
		handleErr(json.NewEncoder(os.Stdout).Encode(schema))
	},
}
