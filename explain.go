package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/crillab/incsat/explain"
)

func readExplainProblem(o *options, path string) (*explain.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open problem")
	}
	defer f.Close()
	pb, err := explain.ParseCNF(f)
	if err != nil {
		return nil, err
	}
	pb.Options.Config = o.cfg
	return pb, nil
}

func newMUSCmd(o *options) *cobra.Command {
	var subset, insertion bool
	cmd := &cobra.Command{
		Use:   "mus FILE",
		Short: "Extract a minimal unsatisfiable subset of an unsatisfiable CNF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pb, err := readExplainProblem(o, args[0])
			if err != nil {
				return err
			}
			var mus *explain.Problem
			switch {
			case subset:
				mus, err = pb.UnsatSubset()
			case insertion:
				mus, err = pb.MUSInsertion()
			default:
				mus, err = pb.MUSDeletion()
			}
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			// Clause numbers start at 1, as in most DIMACS tools.
			fmt.Fprintf(w, "c clauses %s\n", joinLits(lo.Map(mus.Indices, func(i int, _ int) int { return i + 1 })))
			fmt.Fprintln(w, mus.CNF())
			return nil
		},
	}
	cmd.Flags().BoolVar(&subset, "subset", false, "only compute an unsatisfiable subset, which may not be minimal")
	cmd.Flags().BoolVar(&insertion, "insertion", false, "use the insertion algorithm instead of deletion")
	return cmd
}

func newCheckCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE CERTIFICATE",
		Short: "Check a RUP certificate of unsatisfiability against a CNF file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pb, err := readExplainProblem(o, args[0])
			if err != nil {
				return err
			}
			cert, err := os.Open(args[1])
			if err != nil {
				return errors.Wrap(err, "could not open certificate")
			}
			defer cert.Close()
			valid, err := pb.Unsat(cert)
			if err != nil {
				return err
			}
			if valid {
				fmt.Fprintln(cmd.OutOrStdout(), "s VERIFIED")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "s NOT VERIFIED")
			exitCode = 1
			return nil
		},
	}
}
