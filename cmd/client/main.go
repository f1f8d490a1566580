package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/chn0318/stripelog/proto/zlogpb"
	"github.com/chn0318/stripelog/sharedlog"
	"github.com/chn0318/stripelog/sharedlog/stripedlog"
	"github.com/chn0318/stripelog/storageclient"
)

type globalFlags struct {
	addr    string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:          "stripelog",
		Short:        "Issue object class and log requests against a stripelog server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.addr, "addr", "localhost:50051", "gRPC server address")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 5*time.Second, "per-command timeout")

	root.AddCommand(
		newInitCmd(g),
		newReadCmd(g),
		newWriteCmd(g),
		newInvalidateCmd(g),
		newViewInitCmd(g),
		newViewReadCmd(g),
		newCreateCmd(g),
		newAppendAtCmd(g),
		newGetCmd(g),
		newFillCmd(g),
	)
	return root
}

// withClient dials the server and runs fn under the command timeout.
func withClient(cmd *cobra.Command, g *globalFlags, fn func(ctx context.Context, c *storageclient.Client) error) error {
	client, conn, err := storageclient.Dial(g.addr, grpc.WithDefaultCallOptions(grpc.WaitForReady(true)))
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
	defer cancel()
	return fn(ctx, client)
}

func parseUint(name, s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, bits)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s %q", name, s)
	}
	return v, nil
}

type paramFlags struct {
	entrySize        string
	stripeWidth      uint32
	entriesPerObject uint32
}

func (p *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.entrySize, "entry-size", "1KiB", "entry payload size")
	cmd.Flags().Uint32Var(&p.stripeWidth, "stripe-width", 8, "objects per stripe")
	cmd.Flags().Uint32Var(&p.entriesPerObject, "entries-per-object", 1024, "stripes per object")
}

func (p *paramFlags) params() (zlogpb.StripingParams, error) {
	size, err := humanize.ParseBytes(p.entrySize)
	if err != nil || size > 1<<32-1 {
		return zlogpb.StripingParams{}, errors.Errorf("invalid entry size %q", p.entrySize)
	}
	return zlogpb.StripingParams{
		EntrySize:        uint32(size),
		StripeWidth:      p.stripeWidth,
		EntriesPerObject: p.entriesPerObject,
	}, nil
}

func printView(cmd *cobra.Command, v zlogpb.View) {
	fmt.Fprintf(cmd.OutOrStdout(), "epoch=%d num_stripes=%d entry_size=%s stripe_width=%d entries_per_object=%d\n",
		v.Epoch, v.NumStripes, humanize.IBytes(uint64(v.Params.EntrySize)), v.Params.StripeWidth, v.Params.EntriesPerObject)
}

func newInitCmd(g *globalFlags) *cobra.Command {
	var p paramFlags
	cmd := &cobra.Command{
		Use:   "init OBJECT OBJECT_ID",
		Short: "Initialize a log data object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUint("object id", args[1], 64)
			if err != nil {
				return err
			}
			params, err := p.params()
			if err != nil {
				return err
			}
			return withClient(cmd, g, func(ctx context.Context, c *storageclient.Client) error {
				return c.Init(ctx, args[0], params, id)
			})
		},
	}
	p.register(cmd)
	return cmd
}

func newReadCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "read OBJECT POSITION",
		Short: "Read an entry slot of a data object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parseUint("position", args[1], 64)
			if err != nil {
				return err
			}
			return withClient(cmd, g, func(ctx context.Context, c *storageclient.Client) error {
				data, st, err := c.Read(ctx, args[0], pos)
				if err != nil {
					return err
				}
				if st != zlogpb.ReadOK {
					fmt.Fprintln(cmd.OutOrStdout(), st)
					return nil
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
}

func newWriteCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "write OBJECT POSITION DATA",
		Short: "Write an entry slot of a data object",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parseUint("position", args[1], 64)
			if err != nil {
				return err
			}
			return withClient(cmd, g, func(ctx context.Context, c *storageclient.Client) error {
				return c.Write(ctx, args[0], pos, []byte(args[2]))
			})
		},
	}
}

func newInvalidateCmd(g *globalFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "invalidate OBJECT POSITION",
		Short: "Invalidate an entry slot of a data object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parseUint("position", args[1], 64)
			if err != nil {
				return err
			}
			return withClient(cmd, g, func(ctx context.Context, c *storageclient.Client) error {
				return c.Invalidate(ctx, args[0], pos, force)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "invalidate even if the entry holds data")
	return cmd
}

func newViewInitCmd(g *globalFlags) *cobra.Command {
	var p paramFlags
	cmd := &cobra.Command{
		Use:   "view-init OBJECT NUM_STRIPES",
		Short: "Create the epoch 0 view in a log metadata object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseUint("num stripes", args[1], 32)
			if err != nil {
				return err
			}
			params, err := p.params()
			if err != nil {
				return err
			}
			return withClient(cmd, g, func(ctx context.Context, c *storageclient.Client) error {
				return c.ViewInit(ctx, args[0], uint32(n), params)
			})
		},
	}
	p.register(cmd)
	return cmd
}

func newViewReadCmd(g *globalFlags) *cobra.Command {
	var minEpoch uint64
	cmd := &cobra.Command{
		Use:   "view-read OBJECT",
		Short: "List the views of a log metadata object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, g, func(ctx context.Context, c *storageclient.Client) error {
				views, err := c.ViewRead(ctx, args[0], minEpoch)
				if err != nil {
					return err
				}
				for _, v := range views {
					printView(cmd, v)
				}
				return nil
			})
		},
	}
	cmd.Flags().Uint64Var(&minEpoch, "min-epoch", 0, "first epoch to list")
	return cmd
}

func newCreateCmd(g *globalFlags) *cobra.Command {
	var p paramFlags
	cmd := &cobra.Command{
		Use:   "create LOG NUM_STRIPES",
		Short: "Create a striped log",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseUint("num stripes", args[1], 32)
			if err != nil {
				return err
			}
			params, err := p.params()
			if err != nil {
				return err
			}
			return withClient(cmd, g, func(ctx context.Context, c *storageclient.Client) error {
				l, err := stripedlog.Create(ctx, c, args[0], uint32(n), params)
				if err != nil {
					return err
				}
				printView(cmd, l.View())
				return nil
			})
		},
	}
	p.register(cmd)
	return cmd
}

func withLog(cmd *cobra.Command, g *globalFlags, name string, fn func(ctx context.Context, l sharedlog.SharedLog) error) error {
	return withClient(cmd, g, func(ctx context.Context, c *storageclient.Client) error {
		l, err := stripedlog.Open(ctx, c, name)
		if err != nil {
			return err
		}
		return fn(ctx, l)
	})
}

func newAppendAtCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "append-at LOG POSITION DATA",
		Short: "Write an entry at a log position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parseUint("position", args[1], 64)
			if err != nil {
				return err
			}
			return withLog(cmd, g, args[0], func(ctx context.Context, l sharedlog.SharedLog) error {
				return l.Write(ctx, pos, []byte(args[2]))
			})
		},
	}
}

func newGetCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get LOG POSITION",
		Short: "Read the entry at a log position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parseUint("position", args[1], 64)
			if err != nil {
				return err
			}
			return withLog(cmd, g, args[0], func(ctx context.Context, l sharedlog.SharedLog) error {
				data, err := l.Read(ctx, pos)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
}

func newFillCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fill LOG POSITION",
		Short: "Invalidate an unwritten log position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parseUint("position", args[1], 64)
			if err != nil {
				return err
			}
			return withLog(cmd, g, args[0], func(ctx context.Context, l sharedlog.SharedLog) error {
				return l.Fill(ctx, pos)
			})
		},
	}
}
