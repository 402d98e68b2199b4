package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gsmphone-go/services/config"
	"gsmphone-go/types"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "phonectl",
		Short:         "Drive a SIM800H modem from the command line",
		Long:          "phonectl talks AT commands to a SIM800H over a serial adapter, or to a built-in emulator with --emulate.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	f := root.PersistentFlags()
	f.StringVarP(&a.opts.configPath, "config", "c", "", "YAML config file")
	f.StringVarP(&a.opts.port, "port", "p", "", "serial device (overrides config)")
	f.IntVarP(&a.opts.baud, "baud", "b", 0, "serial baud rate (overrides config)")
	f.BoolVar(&a.opts.emulate, "emulate", false, "use the built-in modem emulator")
	f.BoolVar(&a.opts.noInit, "no-init", false, "skip the reset and AT handshake")

	root.AddCommand(
		simpleCmd(a, "ping", "Check the modem answers AT", types.ModemPing),
		infoCmd(a),
		smsCmd(a),
		dialCmd(a),
		simpleCmd(a, "answer", "Answer a ringing call", types.ModemAnswer),
		simpleCmd(a, "hangup", "Hang up the current call", types.ModemHangUp),
		simpleCmd(a, "buzzer", "Enable the ringer buzzer", types.ModemBuzzer),
		volumeCmd(a),
		micCmd(a),
		atCmd(a),
		configCmd(a),
		shellCmd(a),
	)
	return root
}

func simpleCmd(a *app, use, short string, op types.ModemOp) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.do(cmd.Context(), types.ModemRequest{Op: op}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}

func infoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show SIM card ID, signal quality and battery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			id, err := a.do(cmd.Context(), types.ModemRequest{Op: types.ModemSimID})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "sim:     %s\n", id.SimID)

			sig, err := a.do(cmd.Context(), types.ModemRequest{Op: types.ModemSignal})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "signal:  rssi=%d ber=%d\n", sig.RSSI, sig.BER)

			bat, err := a.do(cmd.Context(), types.ModemRequest{Op: types.ModemBattery})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "battery: %d%% %dmV charging=%d\n", bat.Percent, bat.MilliVolt, bat.Charging)
			return nil
		},
	}
}

func smsCmd(a *app) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "sms [flags] <message>",
		Short: "Send a text message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			if to == "" {
				to = a.cfg.Modem.DefaultNumber
			}
			if to == "" {
				return fmt.Errorf("sms: no recipient; pass --to or set modem.default_number")
			}
			req := types.ModemRequest{Op: types.ModemSMS, Number: to, Text: strings.Join(args, " ")}
			if _, err := a.do(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sent to", to)
			return nil
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", "", "recipient number")
	return cmd
}

func dialCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dial <number>",
		Short: "Place a voice call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.do(cmd.Context(), types.ModemRequest{Op: types.ModemDial, Number: args[0]}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "dialing", args[0])
			return nil
		},
	}
}

func levelArgs(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, s := range args {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", s)
		}
		out[i] = n
	}
	return out, nil
}

func volumeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "volume <0-100>",
		Short: "Set the speaker volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := levelArgs(args)
			if err != nil {
				return err
			}
			if _, err := a.do(cmd.Context(), types.ModemRequest{Op: types.ModemVolume, Level: n[0]}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}

func micCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mic <channel> <0-15>",
		Short: "Set the microphone gain of a channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := levelArgs(args)
			if err != nil {
				return err
			}
			req := types.ModemRequest{Op: types.ModemMicGain, Channel: n[0], Level: n[1]}
			if _, err := a.do(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
}

func atCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "at <command>",
		Short: "Send a raw AT command and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.do(cmd.Context(), types.ModemRequest{Op: types.ModemRaw, Command: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), strings.TrimSpace(res.Response)+"\n")
			return nil
		},
	}
}

// configCmd prints the effective configuration, flags applied.
func configCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			data, err := config.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
