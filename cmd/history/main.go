package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"weatherclassifier/internal/model"
	"weatherclassifier/internal/repository/sqlite"
	"weatherclassifier/internal/services/stats"
)

func main() {
	dbPath := flag.String("db", filepath.Join("data", "analysis_history.db"), "Database path")
	exportPath := flag.String("export", "", "Write matching records to this JSON file")
	year := flag.Int("year", 0, "Filter by year (required for -stats and -hourly)")
	month := flag.Int("month", 0, "Filter by month")
	day := flag.Int("day", 0, "Filter by day")
	purgeDays := flag.Int("purge-days", -1, "Delete records older than this many days")
	showStats := flag.Bool("stats", false, "Print statistics for the date filter")
	showHourly := flag.Bool("hourly", false, "Print per-hour statistics for year/month/day")
	list := flag.Int("list", 0, "Print the most recent N records")
	timezone := flag.String("timezone", "Local", "Zone calendar fields are evaluated in")
	flag.Parse()

	loc, err := time.LoadLocation(*timezone)
	if err != nil {
		log.Fatalf("Invalid timezone: %v", err)
	}

	if _, err := os.Stat(*dbPath); os.IsNotExist(err) {
		log.Fatalf("Database not found: %s", *dbPath)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewAnalysisRepository(db, sqlite.WithLocation(loc))
	filter := model.DateFilter{Year: *year, Month: *month, Day: *day}
	didSomething := false

	if *exportPath != "" {
		didSomething = true
		path, err := repo.ExportToFile(*exportPath, filter)
		if err != nil {
			log.Fatalf("Failed to export history: %v", err)
		}
		fmt.Printf("Exported history to %s\n", path)
	}

	if *showStats {
		didSomething = true
		records, err := repo.GetByDate(filter)
		if err != nil {
			log.Fatalf("Failed to load records: %v", err)
		}
		printJSON(stats.For(records))
	}

	if *showHourly {
		didSomething = true
		if filter.Year <= 0 || filter.Month <= 0 || filter.Day <= 0 {
			log.Fatalf("-hourly requires -year, -month and -day")
		}
		records, err := repo.GetByDate(filter)
		if err != nil {
			log.Fatalf("Failed to load records: %v", err)
		}
		hourly := stats.Hourly(records)
		hours := make([]int, 0, len(hourly))
		for h := range hourly {
			hours = append(hours, h)
		}
		sort.Ints(hours)
		for _, h := range hours {
			slot := hourly[h]
			if slot.Count == 0 {
				continue
			}
			fmt.Printf("%02d:00  count=%d  avg_conf=%.2f%%  duration=%.2fs  %v\n",
				h, slot.Count, slot.AverageConfidence*100, slot.TotalDuration, slot.Predictions)
		}
	}

	if *list > 0 {
		didSomething = true
		records, err := repo.ListAll(*list)
		if err != nil {
			log.Fatalf("Failed to list records: %v", err)
		}
		for _, r := range records {
			conf := "-"
			if r.Confidence != nil {
				conf = fmt.Sprintf("%.2f%%", *r.Confidence*100)
			}
			fmt.Printf("#%d  %s  %-8s %7s  %s\n", r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), r.Prediction, conf, r.ImageName)
		}
	}

	if *purgeDays >= 0 {
		didSomething = true
		removed, err := repo.PurgeOlderThan(*purgeDays)
		if err != nil {
			log.Fatalf("Failed to purge history: %v", err)
		}
		fmt.Printf("Deleted %d records older than %d days\n", removed, *purgeDays)
	}

	if !didSomething {
		count, err := repo.Count()
		if err != nil {
			log.Fatalf("Failed to count records: %v", err)
		}
		fmt.Printf("%s holds %d records\n", *dbPath, count)
	}
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
}
