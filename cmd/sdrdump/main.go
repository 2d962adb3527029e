// Command sdrdump prints the SDR repository and sensor readings of a
// simulated BMC.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/k-sone/ipmisdr"
	"github.com/k-sone/ipmisdr/bmcsim"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// | Name | Type | Reading | Units | Status(for threshold-base) |
const rowFormat = "| %-16s | %-30s | %-10s | %-20s | %-3s |\n"

type options struct {
	configPath string
	fixture    string
	verbose    bool

	log    *zap.Logger
	client *ipmisdr.Client
	sim    *bmcsim.Repository
}

func newRootCmd() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:           "sdrdump",
		Short:         "Dump the SDR repository of a simulated BMC",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if o.log != nil {
				_ = o.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&o.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&o.fixture, "fixture", "", "simulator fixture (overrides the config file)")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "log retries and commands")

	root.AddCommand(newListCmd(o), newGetCmd(o), newReadingCmd(o), newSetThresholdsCmd(o))
	return root
}

func (o *options) setup() error {
	cfg, err := loadConfig(o.configPath)
	if err != nil {
		return err
	}
	if o.fixture != "" {
		cfg.Fixture = o.fixture
	}
	if cfg.Fixture == "" {
		return errors.New("no simulator fixture, use --fixture or the config file")
	}

	if o.verbose {
		o.log, err = zap.NewDevelopment()
	} else {
		o.log, err = zap.NewProduction(zap.IncreaseLevel(zap.WarnLevel))
	}
	if err != nil {
		return errors.Wrap(err, "create logger")
	}

	if o.sim, err = bmcsim.Load(cfg.Fixture, o.log.Named("bmcsim")); err != nil {
		return err
	}
	args := cfg.arguments()
	args.Logger = o.log.Named("ipmisdr")
	o.client, err = ipmisdr.NewClient(o.sim, args)
	return err
}

func newListCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print sensor records and their readings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			records, err := o.client.SDRGetRecordsRepo(ctx, func(id uint16, t ipmisdr.SDRType) bool {
				return t == ipmisdr.SDRTypeFullSensor || t == ipmisdr.SDRTypeCompactSensor
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, r := range records {
				var num uint8
				var sname, stype, units string
				var full *ipmisdr.SDRFullSensor
				switch s := r.(type) {
				case *ipmisdr.SDRFullSensor:
					full = s
					num, sname, stype = s.SensorNumber, s.SensorID(), s.SensorType.String()
				case *ipmisdr.SDRCompactSensor:
					num, sname, stype = s.SensorNumber, s.SensorID(), s.SensorType.String()
				}

				reading, status := "n/a", "n/a"
				units = "discrete"
				raw, states, err := o.client.GetSensorReading(ctx, num)
				if code, ok := ipmisdr.CompletionCodeOf(err); ok {
					status = code.String()
				} else if err != nil {
					return err
				}

				if full != nil && full.IsAnalogReading() {
					units = full.UnitString()
					if raw != nil {
						v, err := full.ConvertSensorReading(*raw)
						if err != nil {
							return err
						}
						reading = fmt.Sprintf("%.2f", v)
					}
					if states != nil {
						status = string(ipmisdr.NewThresholdStatus(uint8(*states)))
					}
				} else if raw != nil {
					reading = fmt.Sprintf("0x%02x", *raw)
				}
				fmt.Fprintf(w, rowFormat, sname, stype, reading, units, status)
			}
			return nil
		},
	}
}

func newGetCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <record-id>",
		Short: "Print one decoded record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 0, 16)
			if err != nil {
				return errors.Wrapf(err, "record id %q", args[0])
			}
			r, err := o.client.GetSDR(cmd.Context(), uint16(id), nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s 0x%04x (next 0x%04x): %v\n", r.Type(), r.ID(), r.NextID(), r)
			return nil
		},
	}
}

func newReadingCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reading <sensor-number>",
		Short: "Print the raw reading and states of a sensor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			num, err := strconv.ParseUint(args[0], 0, 8)
			if err != nil {
				return errors.Wrapf(err, "sensor number %q", args[0])
			}
			raw, states, err := o.client.GetSensorReading(cmd.Context(), uint8(num))
			if err != nil {
				return err
			}

			reading, st := "n/a", "n/a"
			if raw != nil {
				reading = fmt.Sprintf("0x%02x", *raw)
			}
			if states != nil {
				st = fmt.Sprintf("0x%04x", *states)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sensor 0x%02x: reading %s, states %s\n", num, reading, st)
			return nil
		},
	}
}

func newSetThresholdsCmd(o *options) *cobra.Command {
	flags := map[string]*float64{}
	names := []string{"unr", "ucr", "unc", "lnc", "lcr", "lnr"}

	cmd := &cobra.Command{
		Use:   "set-thresholds <record-id>",
		Short: "Write thresholds, in sensor units, of a full sensor record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 0, 16)
			if err != nil {
				return errors.Wrapf(err, "record id %q", args[0])
			}
			r, err := o.client.GetSDR(cmd.Context(), uint16(id), nil)
			if err != nil {
				return err
			}
			full, ok := r.(*ipmisdr.SDRFullSensor)
			if !ok {
				return errors.Errorf("record 0x%04x is a %s record", r.ID(), r.Type())
			}

			var v ipmisdr.ThresholdValues
			set := func(name string) *float64 {
				if cmd.Flags().Changed(name) {
					return flags[name]
				}
				return nil
			}
			v.UNR, v.UCR, v.UNC = set("unr"), set("ucr"), set("unc")
			v.LNC, v.LCR, v.LNR = set("lnc"), set("lcr"), set("lnr")

			t, err := full.EncodeThresholds(v)
			if err != nil {
				return err
			}
			if err := o.client.SetSensorThresholds(cmd.Context(), full.SensorNumber, t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "thresholds of %q updated\n", full.SensorID())
			return nil
		},
	}
	for _, n := range names {
		flags[n] = new(float64)
		cmd.Flags().Float64Var(flags[n], n, 0, n+" threshold")
	}
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
