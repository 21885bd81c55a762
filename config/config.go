package config

import "github.com/caarlos0/env/v6"

type Config struct {
	Server struct {
		Port string `env:"SERVER_PORT" envDefault:"5250"`
	}

	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"database/tracker.db"`
	}

	Segments struct {
		Path string `env:"SEGMENTS_PATH" envDefault:"config/segments.json"`
	}

	// Minimum sample sizes for the period-widening fallback
	Thresholds struct {
		Monthly   int `env:"MIN_SAMPLE_MONTHLY" envDefault:"3"`
		Quarterly int `env:"MIN_SAMPLE_QUARTERLY" envDefault:"5"`
		SixMonth  int `env:"MIN_SAMPLE_6MONTH" envDefault:"8"`
	}

	// Annual growth assumptions for time adjustment
	TimeAdjustment struct {
		DefaultGrowthRate  float64 `env:"DEFAULT_GROWTH_RATE" envDefault:"0.07"`
		ConservativeOffset float64 `env:"CONSERVATIVE_OFFSET" envDefault:"0.02"`
		OptimisticOffset   float64 `env:"OPTIMISTIC_OFFSET" envDefault:"0.03"`
	}

	Telegram struct {
		IsEnabled bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
		BotToken  string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID    string `env:"TELEGRAM_CHAT_ID"`
	}

	Report struct {
		// Cron spec for the periodic report job (09:00 on the 1st and 15th)
		Schedule string `env:"REPORT_SCHEDULE" envDefault:"0 9 1,15 * *"`
	}

	// Financial parameters for the affordability gap calculation
	Finance struct {
		SavingsBalance      int     `env:"SAVINGS_BALANCE" envDefault:"0"`
		MonthlySavings      int     `env:"MONTHLY_SAVINGS" envDefault:"0"`
		PPORDebt            int     `env:"PPOR_DEBT" envDefault:"0"`
		PPORSellingCostRate float64 `env:"PPOR_SELLING_COST_RATE" envDefault:"0.02"`
		IPDebt              int     `env:"IP_DEBT" envDefault:"0"`
		RefinanceLVRCap     float64 `env:"REFINANCE_LVR_CAP" envDefault:"0.80"`
		HaircutBear         float64 `env:"VALUATION_HAIRCUT_BEAR" envDefault:"0.90"`
		HaircutBase         float64 `env:"VALUATION_HAIRCUT_BASE" envDefault:"0.95"`
		HaircutBull         float64 `env:"VALUATION_HAIRCUT_BULL" envDefault:"1.00"`
		PurchaseCostRate    float64 `env:"PURCHASE_COST_RATE" envDefault:"0.01"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of sales to accumulate before processing
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Maximum time to wait before processing a non-full batch (in seconds)
		MaxBatchWaitTime int `env:"BATCH_WAIT_TIME" envDefault:"30"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
