// Package cmd implements the command-line interface for airfeed.
package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/airfeed/airfeed/color"
	"github.com/airfeed/airfeed/filesystem"
	"github.com/airfeed/airfeed/history"
	"github.com/airfeed/airfeed/key"
	"github.com/airfeed/airfeed/log"
	"github.com/airfeed/airfeed/media"
	"github.com/airfeed/airfeed/playlist"
	"github.com/airfeed/airfeed/scheduler"
	"github.com/airfeed/airfeed/style"
	"github.com/airfeed/airfeed/util"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("mode", "m", "", "Playlist traversal mode (normal, randomize, random)")
	lo.Must0(viper.BindPFlag(key.PlaylistMode, runCmd.Flags().Lookup("mode")))

	runCmd.Flags().Int("reload-every", 0, "Reload the playlist every that many rounds or seconds")
	lo.Must0(viper.BindPFlag(key.PlaylistReloadAmount, runCmd.Flags().Lookup("reload-every")))

	runCmd.Flags().String("reload-unit", "rounds", "Unit for --reload-every (rounds, seconds)")
	lo.Must0(viper.BindPFlag(key.PlaylistReloadUnit, runCmd.Flags().Lookup("reload-unit")))

	runCmd.Flags().StringP("prefix", "p", "", "Prefix prepended to every playlist entry")
	lo.Must0(viper.BindPFlag(key.PlaylistPrefix, runCmd.Flags().Lookup("prefix")))

	runCmd.Flags().BoolP("safe", "s", false, "Fail unless the playlist has at least one valid entry")
	lo.Must0(viper.BindPFlag(key.PlaylistSafe, runCmd.Flags().Lookup("safe")))

	runCmd.Flags().String("mime-type", "", "Playlist document MIME type (empty autodetects)")
	lo.Must0(viper.BindPFlag(key.PlaylistMimeType, runCmd.Flags().Lookup("mime-type")))

	runCmd.Flags().StringP("output", "o", "-", "Write frames to this file, - for stdout")
	runCmd.Flags().IntP("frames", "n", 0, "Stop after that many frames, 0 plays until interrupted")
}

// runCmd feeds decoded audio frames from a playlist to an output sink at
// playback cadence.
var runCmd = &cobra.Command{
	Use:   "run [playlist]",
	Short: "Feed audio frames from a playlist at playback cadence",
	Long: `Load a playlist, resolve its entries in the background and emit one audio frame
per frame interval, the way a streaming server would consume them.`,
	Args:    cobra.MaximumNArgs(1),
	Example: "  airfeed run ./library.m3u --mode randomize --reload-every 2",
	Run: func(cmd *cobra.Command, args []string) {
		var uri string
		if len(args) > 0 {
			uri = args[0]
		} else {
			input := survey.Input{
				Message: "Playlist URI:",
				Suggest: func(toComplete string) []string {
					return history.SuggestMany(toComplete)
				},
			}
			handleErr(survey.AskOne(&input, &uri, survey.WithValidator(survey.Required)))
		}

		util.Ignore(func() error {
			return history.Remember(uri, 1)
		})

		cfg, err := playlist.ConfigFromViper(uri)
		handleErr(err)

		src, err := playlist.New(cfg, media.StandardFactory{}, playlist.NewFetcher(playlist.IsAudioFile), scheduler.Async{})
		handleErr(err)
		defer src.Close()

		var out io.Writer = os.Stdout
		if path := lo.Must(cmd.Flags().GetString("output")); path != "-" {
			file, err := filesystem.API().Create(path)
			handleErr(err)
			defer util.Ignore(file.Close)
			out = file
		} else {
			printBanner(cmd, uri)
		}

		pump(cmd, src, out, lo.Must(cmd.Flags().GetInt("frames")))
	},
}

// pump pulls frames at playback cadence until the frame budget or an
// interrupt ends the session.
func pump(cmd *cobra.Command, src *playlist.Source, out io.Writer, frames int) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	ticker := time.NewTicker(media.FrameDuration)
	defer ticker.Stop()

	buf := make([]byte, media.FrameSize)
	var played int

	for {
		select {
		case <-interrupt:
			log.Info("run: interrupted, stopping playback")
			src.Abort()
			return

		case <-ticker.C:
			n := src.ReadFrame(buf)
			if n == 0 {
				continue
			}
			if _, err := out.Write(buf[:n]); err != nil {
				handleErr(fmt.Errorf("write frame: %w", err))
			}

			played++
			if frames > 0 && played >= frames {
				return
			}
		}
	}
}

func printBanner(cmd *cobra.Command, uri string) {
	banner := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.HiPurple).
		Padding(0, 2).
		Render(fmt.Sprintf("%s %s", style.Bold("On air:"), style.Fg(color.Yellow)(uri)))

	cmd.PrintErrln(banner)
}
