package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ptgbot/app"
	"github.com/kilianp07/ptgbot/config"
	"github.com/kilianp07/ptgbot/core/chat"
	"github.com/kilianp07/ptgbot/core/schedule"
)

var (
	execSender    string
	execPrivilege string
)

var execCmd = &cobra.Command{
	Use:   "exec COMMAND...",
	Short: "Run one chat command against the schedule and print the replies",
	Example: `  ptgbot exec --sender alice --privilege voiced '#keynote book A-1'
  ptgbot exec --sender chair --privilege op '~list'`,
	Args: cobra.MinimumNArgs(1),
	RunE: execCommand,
}

func init() {
	execCmd.Flags().StringVar(&execSender, "sender", "console", "nick issuing the command")
	execCmd.Flags().StringVar(&execPrivilege, "privilege", "operator", "channel status of the sender: none, voiced or operator")
	rootCmd.AddCommand(execCmd)
}

func execCommand(cmd *cobra.Command, args []string) error {
	priv, err := chat.ParsePrivilege(execPrivilege)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	console := &consoleTransport{out: cmd.OutOrStdout(), nick: execSender, privilege: priv}
	svc, err := app.New(cfg, app.Options{ConfigPath: cfgPath, Transport: console})
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	svc.Handle(cmd.Context(), chat.Event{
		Sender:  execSender,
		Channel: cfg.Bot.Channel,
		Text:    strings.Join(args, " "),
	})
	return console.err
}

// consoleTransport prints replies instead of sending them to a channel.
type consoleTransport struct {
	out       io.Writer
	nick      string
	privilege chat.Privilege
	err       error
}

func (c *consoleTransport) Send(_ context.Context, _ string, line string) error {
	_, err := fmt.Fprintln(c.out, line)
	if err != nil && c.err == nil {
		c.err = err
	}
	return err
}

func (c *consoleTransport) Privilege(_ context.Context, _ string, nick string) (chat.Privilege, error) {
	if strings.EqualFold(nick, c.nick) {
		return c.privilege, nil
	}
	return chat.PrivilegeNone, nil
}

func (c *consoleTransport) Run(ctx context.Context, _ chat.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (c *consoleTransport) PublishSchedule(schedule.Snapshot) error { return nil }

func (c *consoleTransport) Disconnect() {}

var _ app.Transport = (*consoleTransport)(nil)
