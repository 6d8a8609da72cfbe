package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	AppName    = "Bollinger Download"
	AppVersion = "1.0.0"

	// DefaultSpreadPips is the synthetic spread applied around the kline
	// close when the venue has no bid/ask history.
	DefaultSpreadPips = 1.0

	bybitMaxLimit = 1000
)

// BybitKline holds one candlestick from the Bybit v5 kline endpoint
type BybitKline struct {
	StartTime int64
	Close     float64
}

// BybitResponse represents the API response structure
type BybitResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Symbol   string     `json:"symbol"`
		Category string     `json:"category"`
		List     [][]string `json:"list"`
	} `json:"result"`
	Time int64 `json:"time"`
}

func main() {
	var (
		symbol     = flag.String("symbol", "EURUSDT", "Trading symbol (e.g. EURUSDT)")
		interval   = flag.String("interval", "1", "Kline interval in minutes (1, 3, 5, 15, 30, 60)")
		category   = flag.String("category", "spot", "Market category (spot, linear, inverse)")
		startDate  = flag.String("start", "", "Start date (YYYY-MM-DD)")
		endDate    = flag.String("end", "", "End date (YYYY-MM-DD)")
		outdir     = flag.String("outdir", "data/bybit", "Directory to write CSV files")
		output     = flag.String("output", "", "Explicit output file path")
		spreadPips = flag.Float64("spread-pips", DefaultSpreadPips, "Synthetic bid/ask spread in pips")
		limit      = flag.Int("limit", bybitMaxLimit, "Number of klines per request (max 1000)")
	)
	flag.Parse()

	fmt.Printf("🎯 %s v%s\n", strings.ToUpper(AppName), AppVersion)
	fmt.Printf("%s\n\n", strings.Repeat("=", 50))

	if *limit > bybitMaxLimit {
		*limit = bybitMaxLimit
	}

	sym := strings.ToUpper(strings.TrimSpace(*symbol))

	// Default to one year of data
	end := time.Now()
	start := end.AddDate(-1, 0, 0)

	if *startDate != "" {
		parsedStart, err := time.Parse("2006-01-02", *startDate)
		if err != nil {
			log.Fatalf("❌ Invalid start date format: %v", err)
		}
		start = parsedStart
	}
	if *endDate != "" {
		parsedEnd, err := time.Parse("2006-01-02", *endDate)
		if err != nil {
			log.Fatalf("❌ Invalid end date format: %v", err)
		}
		end = parsedEnd
	}

	fmt.Printf("📥 Downloading %s %sm klines (%s) from %s to %s\n",
		sym, *interval, *category, start.Format("2006-01-02"), end.Format("2006-01-02"))

	klines, err := downloadBybitKlines(*category, sym, *interval, start, end, *limit)
	if err != nil {
		log.Fatalf("❌ Download failed: %v", err)
	}
	if len(klines) == 0 {
		log.Fatalf("❌ No klines returned for %s", sym)
	}

	outPath := *output
	if outPath == "" {
		outPath = filepath.Join(*outdir, sym, *interval, "bars.csv")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		log.Fatalf("❌ Failed to create output directory: %v", err)
	}

	if err := saveBidAskCSV(klines, *spreadPips, outPath); err != nil {
		log.Fatalf("❌ Failed to write CSV: %v", err)
	}

	fmt.Printf("✅ Wrote %d bars to %s\n", len(klines), outPath)
}

func downloadBybitKlines(category, symbol, interval string, start, end time.Time, limit int) ([]BybitKline, error) {
	var allKlines []BybitKline

	startMs := start.Unix() * 1000
	endMs := end.Unix() * 1000
	currentEndMs := endMs

	for currentEndMs > startMs {
		// Bybit returns data in descending order (newest first), so page
		// backwards with the 'end' parameter
		url := fmt.Sprintf("https://api.bybit.com/v5/market/kline?category=%s&symbol=%s&interval=%s&end=%d&limit=%d",
			category, symbol, interval, currentEndMs, limit)

		resp, err := http.Get(url)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != 200 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
		}

		var bybitResp BybitResponse
		if err := json.NewDecoder(resp.Body).Decode(&bybitResp); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("JSON decode error: %w", err)
		}
		resp.Body.Close()

		if bybitResp.RetCode != 0 {
			return nil, fmt.Errorf("Bybit API error %d: %s", bybitResp.RetCode, bybitResp.RetMsg)
		}

		if len(bybitResp.Result.List) == 0 {
			break
		}

		oldestTimestamp := int64(0)
		for _, raw := range bybitResp.Result.List {
			if len(raw) < 7 {
				continue
			}

			// Bybit format: [startTime, open, high, low, close, volume, turnover]
			startTime, err := strconv.ParseInt(raw[0], 10, 64)
			if err != nil {
				continue
			}
			closePrice, err := strconv.ParseFloat(raw[4], 64)
			if err != nil {
				continue
			}

			if startTime >= startMs && startTime <= endMs {
				allKlines = append(allKlines, BybitKline{StartTime: startTime, Close: closePrice})
			}

			if oldestTimestamp == 0 || startTime < oldestTimestamp {
				oldestTimestamp = startTime
			}
		}

		if oldestTimestamp <= startMs {
			break
		}
		currentEndMs = oldestTimestamp - 1

		fmt.Printf("\r  Progress: %d klines downloaded...", len(allKlines))

		// Rate limiting (Bybit allows up to 120 requests per minute for public endpoints)
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println()

	// Reverse into ascending order
	for i, j := 0, len(allKlines)-1; i < j; i, j = i+1, j-1 {
		allKlines[i], allKlines[j] = allKlines[j], allKlines[i]
	}

	return allKlines, nil
}

// saveBidAskCSV writes klines as bid/ask rows with a synthetic spread
// centered on the close price
func saveBidAskCSV(klines []BybitKline, spreadPips float64, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"time", "bid", "ask"}); err != nil {
		return err
	}

	halfSpread := spreadPips / 10000 / 2
	for _, k := range klines {
		ts := time.UnixMilli(k.StartTime).UTC()
		record := []string{
			ts.Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(k.Close-halfSpread, 'f', 5, 64),
			strconv.FormatFloat(k.Close+halfSpread, 'f', 5, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}
