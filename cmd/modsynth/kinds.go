package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-modsynth/synth/node"
	"github.com/cwbudde/algo-modsynth/synth/nodes"
)

func newKindsCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "kinds [kind ...]",
		Short: "List node kinds with their ports and parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := nodes.DefaultRegistry()

			kinds := args
			if len(kinds) == 0 {
				kinds = reg.Kinds()
			}

			if !verbose && len(args) == 0 {
				for _, k := range kinds {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}

				return nil
			}

			for _, k := range kinds {
				n, err := reg.New(k, node.DefaultContext())
				if err != nil {
					return err
				}

				printKind(cmd.OutOrStdout(), k, n)
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show ports and parameters for every kind")

	return cmd
}

func printKind(w io.Writer, kind string, n node.Node) {
	fmt.Fprintf(w, "%s\n", kind)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	ports := n.Ports()
	for i := range ports.NumInputs() {
		ch, _ := ports.Input(i)
		fmt.Fprintf(tw, "  in %d\t%s\t%s\n", i, ch.Name, ch.Type)
	}

	for i := range ports.NumOutputs() {
		ch, _ := ports.Output(i)
		fmt.Fprintf(tw, "  out %d\t%s\t%s\n", i, ch.Name, ch.Type)
	}

	for _, p := range n.Parameters() {
		mod := ""
		if p.ModID != "" {
			mod = "mod " + p.ModID
		}

		fmt.Fprintf(tw, "  param\t%s\t%g..%g (default %g)\t%s\n", p.ID, p.Min, p.Max, p.Default, mod)
	}

	tw.Flush()
	fmt.Fprintln(w)
}
