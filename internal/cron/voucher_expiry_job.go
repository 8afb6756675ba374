package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/canyonbook-backend/pkg/logger"
)

const (
	voucherExpiryBatch      = 100
	voucherExpiryMaxBatches = 20
)

type VoucherExpiryJobParams struct {
	Logger    *logger.Logger
	Vouchers  voucherExpirer
	BatchSize int
}

type voucherExpirer interface {
	ExpireDue(ctx context.Context, limit int) (int, error)
}

// NewVoucherExpiryJob deactivates gift vouchers past their expiry date in batches.
func NewVoucherExpiryJob(params VoucherExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Vouchers == nil {
		return nil, fmt.Errorf("voucher service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = voucherExpiryBatch
	}
	return &voucherExpiryJob{
		logg:     params.Logger,
		vouchers: params.Vouchers,
		batch:    batch,
	}, nil
}

type voucherExpiryJob struct {
	logg     *logger.Logger
	vouchers voucherExpirer
	batch    int
}

func (j *voucherExpiryJob) Name() string { return "voucher-expiry" }

func (j *voucherExpiryJob) Run(ctx context.Context) error {
	total := 0
	for i := 0; i < voucherExpiryMaxBatches; i++ {
		n, err := j.vouchers.ExpireDue(ctx, j.batch)
		if err != nil {
			return fmt.Errorf("voucher expiry: %w", err)
		}
		total += n
		if n < j.batch {
			break
		}
	}
	j.logg.Info(j.logg.WithField(ctx, "vouchers_expired", total), "voucher expiry complete")
	return nil
}
