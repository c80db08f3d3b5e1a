package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/crillab/incsat/dimacs"
	"github.com/crillab/incsat/ipasir"
)

func newICNFCmd(o *options) *cobra.Command {
	var model bool
	cmd := &cobra.Command{
		Use:   "icnf FILE",
		Short: "Replay an incremental iCNF file on a single session",
		Long: `Replay an iCNF file: clauses are added as they are read and each "a" line
is solved under its assumptions. One status line is printed per query, followed
by the failed assumptions when the query is unsatisfiable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "could not open problem")
			}
			defer f.Close()
			s, err := ipasir.New(o.cfg)
			if err != nil {
				return err
			}
			defer func() { _ = s.Release() }()
			if err := s.SetTerminationCallback(ipasir.ContextTerminator(cmd.Context())); err != nil {
				return err
			}
			r := &replayer{s: s, w: cmd.OutOrStdout(), model: model, log: o.log}
			if err := dimacs.Parse(f, r); err != nil {
				return err
			}
			if r.nbQueries == 0 {
				if err := r.solve(); err != nil {
					return err
				}
			}
			o.log.WithField("queries", r.nbQueries).Debug("replay done")
			return nil
		},
	}
	cmd.Flags().BoolVar(&model, "model", false, "print the model of the variables seen so far after each satisfiable query")
	return cmd
}

// A replayer is a dimacs.Handler that drives a session.
type replayer struct {
	s         *ipasir.Session
	w         io.Writer
	model     bool
	log       logrus.FieldLogger
	query     []int
	nbVars    int
	nbQueries int
}

func (r *replayer) Header(h dimacs.Header) error {
	if h.Format != dimacs.ICNF {
		r.log.WithField("format", h.Format).Warn("not an incremental problem, it will be solved once")
	}
	if h.NbVars > 0 {
		r.nbVars = h.NbVars
		return r.s.SetVariableCount(h.NbVars)
	}
	return nil
}

func (r *replayer) Literal(lit int) error {
	r.see(lit)
	return r.s.AddLiteral(lit)
}

func (r *replayer) Assume(lit int) error {
	if lit != 0 {
		r.see(lit)
		r.query = append(r.query, lit)
		return r.s.Assume(lit)
	}
	defer func() { r.query = r.query[:0] }()
	return r.solve()
}

func (r *replayer) see(lit int) {
	if lit < 0 {
		lit = -lit
	}
	if lit > r.nbVars {
		r.nbVars = lit
	}
}

func (r *replayer) solve() error {
	r.nbQueries++
	res, err := r.s.Solve()
	if err != nil {
		return err
	}
	fmt.Fprintf(r.w, "s %s\n", res)
	switch res {
	case ipasir.Satisfiable:
		if r.model {
			model := make([]int, 0, r.nbVars+1)
			for i := 1; i <= r.nbVars; i++ {
				val, err := r.s.Value(i)
				if err != nil {
					return err
				}
				if val == 0 {
					val = -i
				}
				model = append(model, val)
			}
			fmt.Fprintf(r.w, "v %s\n", joinLits(append(model, 0)))
		}
	case ipasir.Unsatisfiable:
		var failed []int
		for _, lit := range r.query {
			ok, err := r.s.AssumptionFailed(lit)
			if err != nil {
				return err
			}
			if ok {
				failed = append(failed, lit)
			}
		}
		fmt.Fprintf(r.w, "f %s\n", joinLits(append(failed, 0)))
	case ipasir.Interrupted:
		return errors.Errorf("query %d was interrupted", r.nbQueries)
	}
	return nil
}
