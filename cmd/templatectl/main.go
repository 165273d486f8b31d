package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/jmaine-gray/invoice-extractor/internal/common"
	"github.com/jmaine-gray/invoice-extractor/internal/entity"
	"github.com/jmaine-gray/invoice-extractor/internal/export"
	"github.com/jmaine-gray/invoice-extractor/internal/repository"
	"github.com/jmaine-gray/invoice-extractor/internal/templates"
)

const usage = `templatectl <command> [flags]

Commands:
  list                     list all learned templates
  get  -id <template-id>   print one template as JSON
  correct -id <template-id> -positions <file.json> [-items <file.json>]
                           overwrite a template's learned coordinates
  export -out <file.xlsx>  export the template catalog to a workbook
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg := common.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := repository.Open(ctx, repository.Config{
		Path:        cfg.Store.Path,
		BusyTimeout: cfg.Store.BusyTimeout,
	}, logger)
	if err != nil {
		fatalf("open template store: %v", err)
	}
	defer repository.Close(db, logger)

	store := repository.NewTemplateRepository(db, logger)
	svc := templates.NewService(store, logger)

	switch os.Args[1] {
	case "list":
		runList(ctx, svc)
	case "get":
		runGet(ctx, svc, os.Args[2:])
	case "correct":
		runCorrect(ctx, svc, os.Args[2:])
	case "export":
		runExport(ctx, store, logger, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func runList(ctx context.Context, svc *templates.Service) {
	ts, err := svc.ListTemplates(ctx)
	if err != nil {
		fatalf("list templates: %v", err)
	}
	for _, t := range ts {
		fmt.Printf("%s  vendor=%q  fields=%d  usage=%d  last_used=%s\n",
			t.TemplateID, t.VendorName, len(t.FieldPositions), t.UsageCount,
			t.LastUsed.Format(time.RFC3339))
	}
	fmt.Printf("%d template(s)\n", len(ts))
}

func runGet(ctx context.Context, svc *templates.Service, args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	id := fs.String("id", "", "template id (required)")
	_ = fs.Parse(args)
	if *id == "" {
		fatalf("-id is required")
	}

	t, err := svc.GetTemplate(ctx, *id)
	if err != nil {
		fatalf("get template: %v", err)
	}
	printJSON(t)
}

func runCorrect(ctx context.Context, svc *templates.Service, args []string) {
	fs := flag.NewFlagSet("correct", flag.ExitOnError)
	id := fs.String("id", "", "template id (required)")
	positionsFile := fs.String("positions", "", "JSON file mapping field name -> {line, offset} (required)")
	itemsFile := fs.String("items", "", "JSON file with the corrected item pattern (optional)")
	_ = fs.Parse(args)
	if *id == "" || *positionsFile == "" {
		fatalf("-id and -positions are required")
	}

	var positions map[string]entity.FieldPosition
	if err := readJSONFile(*positionsFile, &positions); err != nil {
		fatalf("read positions: %v", err)
	}

	req := templates.CorrectionRequest{TemplateID: *id, FieldPositions: positions}
	if *itemsFile != "" {
		var pattern entity.ItemPattern
		if err := readJSONFile(*itemsFile, &pattern); err != nil {
			fatalf("read item pattern: %v", err)
		}
		req.ItemPattern = &pattern
	}

	t, err := svc.CorrectTemplate(ctx, req)
	if err != nil {
		fatalf("correct template: %v", err)
	}
	fmt.Printf("template %s corrected (%d fields)\n", t.TemplateID, len(t.FieldPositions))
}

func runExport(ctx context.Context, store repository.TemplateRepository, logger *slog.Logger, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "templates.xlsx", "output XLSX path")
	_ = fs.Parse(args)

	b, err := export.NewService(store, logger).ExportTemplatesXLSX(ctx)
	if err != nil {
		fatalf("export templates: %v", err)
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		fatalf("write %s: %v", *out, err)
	}
	fmt.Printf("wrote %s\n", *out)
}

func readJSONFile(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("marshal: %v", err)
	}
	fmt.Println(string(b))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
