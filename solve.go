package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crillab/incsat/bf"
	"github.com/crillab/incsat/dimacs"
	"github.com/crillab/incsat/ipasir"
)

type solveOptions struct {
	budget    int64
	timeout   time.Duration
	portfolio bool
	noModel   bool
}

func newSolveCmd(o *options) *cobra.Command {
	so := &solveOptions{}
	cmd := &cobra.Command{
		Use:   "solve FILE",
		Short: "Solve a DIMACS CNF file, or a boolean formula in a .bf file",
		Long: `Solve a problem and print its status line, then its model when one was found.
The exit code is 10 for a satisfiable problem, 20 for an unsatisfiable one and 0 otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if so.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, so.timeout)
				defer cancel()
			}
			if filepath.Ext(args[0]) == ".bf" {
				return o.solveFormula(ctx, cmd.OutOrStdout(), args[0], so)
			}
			return o.solveCNF(ctx, cmd.OutOrStdout(), args[0], so)
		},
	}
	flags := cmd.Flags()
	flags.Int64Var(&so.budget, "budget", 0, "maximum number of conflicts per engine, 0 for no limit")
	flags.DurationVar(&so.timeout, "timeout", 0, "give up after this long, 0 for no limit")
	flags.BoolVar(&so.portfolio, "portfolio", false, "race every registered engine and keep the first verdict")
	flags.BoolVar(&so.noModel, "no-model", false, "do not print the model")
	return cmd
}

func readProblem(path string) (*dimacs.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open problem")
	}
	defer f.Close()
	pb, err := dimacs.ReadProblem(f)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse %s", path)
	}
	return pb, nil
}

// A verdict is the outcome of solving a problem with one engine.
type verdict struct {
	engine string
	res    ipasir.Result
	model  []int
}

func (o *options) solveCNF(ctx context.Context, w io.Writer, path string, so *solveOptions) error {
	pb, err := readProblem(path)
	if err != nil {
		return err
	}
	o.log.WithFields(logrus.Fields{"vars": pb.NbVars, "clauses": len(pb.Clauses)}).Debug("problem parsed")
	engines := []string{o.cfg.Engine}
	if so.portfolio {
		engines = ipasir.Engines()
	}
	v, err := o.race(ctx, pb, engines, so.budget)
	if err != nil {
		return err
	}
	printVerdict(w, v, !so.noModel)
	exitCode = int(v.res)
	return nil
}

// race solves pb with each engine concurrently. The first verdict wins and
// interrupts the other engines.
func (o *options) race(ctx context.Context, pb *dimacs.Problem, engines []string, budget int64) (verdict, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	var (
		mu   sync.Mutex
		best = verdict{res: ipasir.Interrupted}
	)
	for _, engine := range engines {
		engine := engine
		g.Go(func() error {
			v, err := o.solveWith(ctx, engine, pb, budget)
			if errors.Is(err, ipasir.ErrUnsupported) && len(engines) > 1 {
				o.log.WithError(err).WithField("engine", engine).Warn("engine left out of the portfolio")
				return nil
			}
			if err != nil {
				return errors.Wrap(err, engine)
			}
			mu.Lock()
			defer mu.Unlock()
			if v.res != ipasir.Interrupted && best.res == ipasir.Interrupted {
				best = v
				cancel()
			}
			return nil
		})
	}
	err := g.Wait()
	if err != nil && best.res == ipasir.Interrupted {
		return best, err
	}
	if best.engine == "" && len(engines) == 1 {
		best.engine = engines[0]
	}
	return best, nil
}

func (o *options) solveWith(ctx context.Context, engine string, pb *dimacs.Problem, budget int64) (v verdict, err error) {
	cfg := o.cfg
	cfg.Engine = engine
	s, err := ipasir.New(cfg)
	if err != nil {
		return v, err
	}
	defer func() { _ = s.Release() }()
	if err := s.SetTerminationCallback(ipasir.ContextTerminator(ctx)); err != nil {
		return v, err
	}
	if err := s.SetVariableCount(pb.NbVars); err != nil {
		return v, err
	}
	for _, clause := range pb.Clauses {
		for _, lit := range clause {
			if err := s.AddLiteral(lit); err != nil {
				return v, err
			}
		}
		if err := s.AddLiteral(0); err != nil {
			return v, err
		}
	}
	start := time.Now()
	res, err := s.SolveBounded(budget)
	if err != nil {
		return v, err
	}
	o.log.WithFields(logrus.Fields{"engine": engine, "result": res, "elapsed": time.Since(start)}).Debug("solve done")
	v = verdict{engine: engine, res: res}
	if res != ipasir.Satisfiable {
		return v, nil
	}
	v.model = make([]int, 0, pb.NbVars)
	for i := 1; i <= pb.NbVars; i++ {
		val, err := s.Value(i)
		if err != nil {
			return v, err
		}
		if val == 0 {
			val = -i
		}
		v.model = append(v.model, val)
	}
	return v, nil
}

func printVerdict(w io.Writer, v verdict, model bool) {
	if v.engine != "" {
		fmt.Fprintf(w, "c solved by %s\n", v.engine)
	}
	fmt.Fprintf(w, "s %s\n", v.res)
	if v.res == ipasir.Satisfiable && model {
		fmt.Fprintf(w, "v %s\n", joinLits(append(v.model, 0)))
	}
}

func joinLits(lits []int) string {
	return strings.Join(lo.Map(lits, func(lit int, _ int) string { return strconv.Itoa(lit) }), " ")
}

// solveFormula solves the formula of a .bf file and prints the binding of each named variable.
func (o *options) solveFormula(ctx context.Context, w io.Writer, path string, so *solveOptions) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "could not open formula")
	}
	defer f.Close()
	form, err := bf.Parse(f)
	if err != nil {
		return errors.Wrapf(err, "could not parse %s", path)
	}
	s, err := ipasir.New(o.cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Release() }()
	if err := s.SetTerminationCallback(ipasir.ContextTerminator(ctx)); err != nil {
		return err
	}
	enc, err := bf.NewEncoder(s)
	if err != nil {
		return err
	}
	if err := enc.Assert(form); err != nil {
		return err
	}
	res, err := s.SolveBounded(so.budget)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "s %s\n", res)
	exitCode = int(res)
	if res != ipasir.Satisfiable || so.noModel {
		return nil
	}
	model, err := enc.Model()
	if err != nil {
		return err
	}
	names := lo.Keys(model)
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s: %t\n", name, model[name])
	}
	return nil
}
