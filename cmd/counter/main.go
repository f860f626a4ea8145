// cmd/counter/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/stockcount/internal/apiclient"
	"github.com/javajoker/stockcount/internal/config"
	"github.com/javajoker/stockcount/internal/counting"
)

func main() {
	var (
		warehouse = flag.String("warehouse", "", "warehouse id or code to count")
		month     = flag.String("month", time.Now().UTC().Format("2006-01"), "inventory month, YYYY-MM")
		file      = flag.String("file", "", "CSV with product_code,unit_abbreviation,quantity")
		view      = flag.String("view", "", "print the counts of a session and exit")
		closeID   = flag.String("close", "", "close a session (admin only) and exit")
		server    = flag.String("server", "", "backend base URL (overrides STOCKCOUNT_SERVER)")
	)
	flag.Parse()

	cfg, err := config.LoadCounter()
	if err != nil {
		fatal(err)
	}
	if *server != "" {
		cfg.ServerURL = *server
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(cfg.ServerURL,
		apiclient.WithLogger(log),
		apiclient.WithUnauthorizedHandler(func() {
			log.Warn("Session expired, log in again")
		}),
	)

	creds, err := client.Authenticate(ctx, cfg.Email, cfg.Password)
	if err != nil {
		fatal(fmt.Errorf("login failed: %w", err))
	}

	switch {
	case *view != "":
		err = printCounts(ctx, client, creds, *view)
	case *closeID != "":
		err = closeSession(ctx, client, creds, *closeID)
	default:
		err = submit(ctx, client, creds, log, *warehouse, *month, *file)
	}
	if err != nil {
		fatal(err)
	}
}

func submit(ctx context.Context, client *apiclient.Client, creds apiclient.Credentials, log logrus.FieldLogger, warehouse, month, file string) error {
	if warehouse == "" || file == "" {
		return errors.New("-warehouse and -file are required")
	}
	m, err := counting.ParseMonth(month)
	if err != nil {
		return err
	}

	warehouseID, err := resolveWarehouse(ctx, client, creds, warehouse)
	if err != nil {
		return err
	}

	products, err := client.ListProducts(ctx, creds)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	units, err := client.ListMeasureUnits(ctx, creds, true)
	if err != nil {
		return fmt.Errorf("load measurement units: %w", err)
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := counting.ImportCSV(f, counting.NewCatalog(products, units))
	if err != nil {
		return err
	}

	submitter := counting.NewSubmitter(client,
		counting.WithLogger(log),
		counting.WithObserver(func(s counting.State) {
			fmt.Fprintln(os.Stderr, s.String())
		}),
	)

	result, err := submitter.Submit(ctx, creds, counting.SessionRequest{WarehouseID: warehouseID, Month: m}, rows)
	var validationErr *counting.ValidationError
	var submissionErr *counting.SubmissionError
	switch {
	case err == nil:
		fmt.Printf("Session %s created (count #%d), %d counts registered\n",
			result.Session.ID, result.Session.CountNumber, len(result.Counts))
		return nil
	case errors.As(err, &validationErr):
		printRowErrors(rows, validationErr.Errors)
		return err
	case errors.As(err, &submissionErr) && submissionErr.Partial():
		fmt.Printf("Session %s: registered %d of %d\n",
			submissionErr.SessionID, submissionErr.Registered, submissionErr.Total)
		return submissionErr.Err
	default:
		return err
	}
}

func resolveWarehouse(ctx context.Context, client *apiclient.Client, creds apiclient.Credentials, ref string) (string, error) {
	warehouses, err := client.ListWarehouses(ctx, creds)
	if err != nil {
		return "", fmt.Errorf("load warehouses: %w", err)
	}
	for _, w := range warehouses {
		if w.ID == ref || strings.EqualFold(w.Code, ref) {
			return w.ID, nil
		}
	}
	return "", fmt.Errorf("warehouse %q not found", ref)
}

func printRowErrors(rows *counting.RowSet, errs map[string]string) {
	for i, row := range rows.Rows() {
		if msg, ok := errs[row.RowID]; ok {
			fmt.Fprintf(os.Stderr, "row %d: %s\n", i+1, msg)
		}
	}
}

func printCounts(ctx context.Context, client *apiclient.Client, creds apiclient.Credentials, sessionID string) error {
	view, err := counting.NewViewer(client).Load(ctx, creds, sessionID)
	if err != nil {
		return err
	}
	if view.Empty() {
		fmt.Println("No counts registered for this session")
		return nil
	}

	products := append([]counting.ProductTotal(nil), view.Summary.Products...)
	sort.SliceStable(products, func(i, j int) bool { return products[i].Code < products[j].Code })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tENTRIES\tPACKAGES\tUNITS")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", p.Code, p.Entries, p.PackagingQuantity, p.TotalUnits)
	}
	fmt.Fprintf(w, "TOTAL\t%d\t%d\t%d\n", view.Summary.Entries, view.Summary.PackagingQuantity, view.Summary.TotalUnits)
	return w.Flush()
}

func closeSession(ctx context.Context, client *apiclient.Client, creds apiclient.Credentials, sessionID string) error {
	session, err := client.CloseSession(ctx, creds, sessionID)
	if err != nil {
		return err
	}
	closedAt := "now"
	if session.ClosedAt != nil {
		closedAt = session.ClosedAt.Format(time.RFC3339)
	}
	fmt.Printf("Session %s closed at %s\n", session.ID, closedAt)
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
