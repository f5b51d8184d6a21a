package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"sentidash/pkg/sentidash"
)

const version = "0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: sentidash-cli [-url URL] <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  version    Print the CLI version\n")
	fmt.Fprintf(os.Stderr, "  assets     List tracked tickers\n")
	fmt.Fprintf(os.Stderr, "  stats      Show total assets, mentions and average sentiment\n")
	fmt.Fprintf(os.Stderr, "  top        Show the most-mentioned tickers\n")
	fmt.Fprintf(os.Stderr, "  trends     Show daily sentiment (-days N|all, -ticker T)\n")
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
}

func main() {
	_ = godotenv.Load()

	baseURL := "http://localhost:8080"
	if v := os.Getenv("SENTIDASH_URL"); v != "" {
		baseURL = v
	}
	flag.StringVar(&baseURL, "url", baseURL, "sentidash-server base URL (env SENTIDASH_URL)")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	c := sentidash.NewClient(baseURL)

	var err error
	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "version":
		fmt.Printf("sentidash-cli %s\n", version)

	case "assets":
		err = runAssets(ctx, c)

	case "stats":
		err = runStats(ctx, c)

	case "top":
		err = runTop(ctx, c)

	case "trends":
		err = runTrends(ctx, c, args)

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runAssets(ctx context.Context, c *sentidash.Client) error {
	tickers, err := c.Assets(ctx)
	if err != nil {
		return err
	}
	for _, t := range tickers {
		fmt.Println(t)
	}
	return nil
}

func runStats(ctx context.Context, c *sentidash.Client) error {
	st, err := c.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("assets:    %d\n", st.TotalAssets)
	fmt.Printf("mentions:  %d\n", st.TotalMentions)
	fmt.Printf("sentiment: %.2f\n", st.AverageSentiment)
	return nil
}

func runTop(ctx context.Context, c *sentidash.Client) error {
	stocks, err := c.TopStocks(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTICKER\tMENTIONS\tSENTIMENT")
	for i, s := range stocks {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%+.2f\n", i+1, s.Ticker, s.Mentions, s.AvgSentiment)
	}
	return tw.Flush()
}

func runTrends(ctx context.Context, c *sentidash.Client, args []string) error {
	fs := flag.NewFlagSet("trends", flag.ContinueOnError)
	days := fs.String("days", "7", "trailing window in days, or \"all\"")
	ticker := fs.String("ticker", "", "restrict to one ticker (default: Global)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	points, err := c.Trends(ctx, *days, *ticker)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		fmt.Println("no mentions in window")
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tSENTIMENT")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%+.2f\n", p.Date, p.Sentiment)
	}
	return tw.Flush()
}
