package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/adeilh/go-places/api"
	"github.com/adeilh/go-places/httpx"
	"github.com/adeilh/go-places/query"
	"github.com/adeilh/go-places/record"
)

var errUsage = errors.New(usage)

// parseInterspersed parses flags that may appear before, between or after
// positional arguments and returns the positional ones.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

func newFlagSet(env *environment, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	return fs
}

func confirm(env *environment, prompt string) bool {
	_, _ = fmt.Fprintf(env.stdout, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(env.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func serveCmd(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet(env, "serve")
	addr := fs.String("addr", env.cfg.HTTP.Address, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := env.build(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	h := api.New(api.Deps{
		Places:   c.places,
		Recipes:  c.recipes,
		Comments: c.comments,
		Caches:   c.caches,
		Gatherer: c.registry,
		Logger:   env.logger,
	})
	server := httpx.NewServer(
		httpx.WithAddress(*addr),
		httpx.WithTimeouts(env.cfg.HTTP.ReadTimeout.Std(), env.cfg.HTTP.WriteTimeout.Std()),
		httpx.WithLogger(env.logger),
		httpx.WithCORS(nil),
		httpx.WithValidators(api.RequireJSON),
	)
	server.RegisterRoutes(h.Register)

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	env.logger.Info("http server stopped")
	return nil
}

func seedCmd(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet(env, "seed")
	limit := fs.Int("limit", 0, "add at most N new places")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return errUsage
	}

	f, err := os.Open(positional[0])
	if err != nil {
		return err
	}
	defer f.Close()

	c, err := env.build(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	report, err := c.places.Seed(ctx, f, *limit)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(env.stdout, "read %d, inserted %d, already stored %d, skipped %d, failed %d\n",
		report.Read, report.Inserted, report.Existing, report.Skipped, len(report.Failed))
	for _, name := range report.Failed {
		_, _ = fmt.Fprintf(env.stdout, "  failed: %s\n", name)
	}
	return nil
}

func searchCmd(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet(env, "search")
	name := fs.String("name", "", "name contains (or equals with -exact)")
	address := fs.String("address", "", "address contains (or equals with -exact)")
	minRating := fs.String("min-rating", "", "minimum rating")
	exact := fs.Bool("exact", false, "match name and address exactly")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p := query.Params{Exact: *exact}
	if *name != "" {
		p.Name = query.String(*name)
	}
	if *address != "" {
		p.Address = query.String(*address)
	}
	if *minRating != "" {
		f, err := strconv.ParseFloat(*minRating, 64)
		if err != nil {
			return fmt.Errorf("-min-rating: %w", err)
		}
		p.MinRating = query.Float(f)
	}

	c, err := env.build(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	places, err := c.places.Repository().Search(ctx, p)
	if err != nil {
		return err
	}
	writePlaces(env.stdout, places)
	return nil
}

func writePlaces(w io.Writer, places []record.Place) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tADDRESS\tRATING\tRATINGS\tPRICE")
	for _, p := range places {
		rating, price := "-", "-"
		if p.Rating != nil {
			rating = strconv.FormatFloat(*p.Rating, 'f', 1, 64)
		}
		if p.PriceLevel != nil {
			price = strings.Repeat("$", *p.PriceLevel)
			if price == "" {
				price = "free"
			}
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", p.Name, p.FormattedAddress, rating, p.UserRatingsTotal, price)
	}
	_ = tw.Flush()
}

func insertCmd(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet(env, "insert")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return errUsage
	}
	name, location := positional[0], positional[1]
	if !*yes && !confirm(env, fmt.Sprintf("Look up and insert %q near %q?", name, location)) {
		_, _ = fmt.Fprintln(env.stdout, "aborted")
		return nil
	}

	c, err := env.build(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	p, created, err := c.places.Add(ctx, name, location)
	if err != nil {
		return err
	}
	if !created {
		_, _ = fmt.Fprintf(env.stdout, "already stored: %s\n", p)
		return nil
	}
	_, _ = fmt.Fprintf(env.stdout, "inserted: %s\n", p)
	return nil
}

func dropAllCmd(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet(env, "drop-all")
	collection := fs.String("collection", record.PlaceSchema.Collection, "collection to clear: restaurants, recipes, comments or all")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := env.build(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	drops := map[string]func(context.Context) error{
		record.PlaceSchema.Collection:   c.places.Repository().Drop,
		record.RecipeSchema.Collection:  c.recipes.Repository().Drop,
		record.CommentSchema.Collection: c.comments.Repository().Drop,
	}
	var targets []string
	switch *collection {
	case "all":
		targets = []string{record.PlaceSchema.Collection, record.RecipeSchema.Collection, record.CommentSchema.Collection}
	default:
		if _, ok := drops[*collection]; !ok {
			return fmt.Errorf("unknown collection %q", *collection)
		}
		targets = []string{*collection}
	}

	if !*yes && !confirm(env, "Remove every record from "+strings.Join(targets, ", ")+"?") {
		_, _ = fmt.Fprintln(env.stdout, "aborted")
		return nil
	}
	for _, name := range targets {
		if err := drops[name](ctx); err != nil {
			return err
		}
		env.logger.Info("collection dropped", zap.String("collection", name))
		_, _ = fmt.Fprintf(env.stdout, "dropped %s\n", name)
	}
	return nil
}
