package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ananth-NQI/aira-gateway/internal/config"
	"github.com/Ananth-NQI/aira-gateway/internal/models"
	"github.com/Ananth-NQI/aira-gateway/internal/storage"
)

func newMigrateCmd() *cobra.Command {
	var seedPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.UseMemoryStore {
				return fmt.Errorf("migrate needs a database, USE_MEMORY_STORE is set")
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			if seedPath == "" {
				return nil
			}

			f, err := os.Open(seedPath)
			if err != nil {
				return err
			}
			defer f.Close()

			count, err := seedOrders(cmd.Context(), store, f)
			if err != nil {
				return err
			}
			log.Printf("✅ Seeded %d orders from %s", count, seedPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&seedPath, "seed-orders", "", "CSV of orders to upsert after migrating")
	return cmd
}

// orderColumns is the header expected in a seed file
var orderColumns = []string{
	"order_id", "customer_name", "email", "shipment_status",
	"expected_delivery", "delivery_address", "reschedule_eligible",
	"address_change_eligible", "invoice_url",
}

func seedOrders(ctx context.Context, store storage.Store, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, col := range orderColumns {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("seed file is missing column %q", col)
		}
	}

	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read row %d: %w", count+1, err)
		}
		order, err := parseOrderRow(record, index)
		if err != nil {
			return count, fmt.Errorf("row %d: %w", count+1, err)
		}
		if err := store.UpsertOrder(ctx, order); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func parseOrderRow(record []string, index map[string]int) (*models.Order, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[index[name]])
	}

	delivery, err := time.Parse(models.DateLayout, field("expected_delivery"))
	if err != nil {
		return nil, fmt.Errorf("expected_delivery: %w", err)
	}
	reschedule, err := strconv.ParseBool(field("reschedule_eligible"))
	if err != nil {
		return nil, fmt.Errorf("reschedule_eligible: %w", err)
	}
	addressChange, err := strconv.ParseBool(field("address_change_eligible"))
	if err != nil {
		return nil, fmt.Errorf("address_change_eligible: %w", err)
	}

	return &models.Order{
		OrderID:               field("order_id"),
		CustomerName:          field("customer_name"),
		Email:                 field("email"),
		ShipmentStatus:        field("shipment_status"),
		ExpectedDelivery:      delivery,
		DeliveryAddress:       field("delivery_address"),
		RescheduleEligible:    reschedule,
		AddressChangeEligible: addressChange,
		InvoiceURL:            field("invoice_url"),
	}, nil
}
