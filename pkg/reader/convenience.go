package reader

import (
	"context"
	"fmt"
	"time"

	"github.com/tallykit/tallygate/pkg/protocol"
	"github.com/tallykit/tallygate/pkg/records"
	"github.com/tallykit/tallygate/pkg/transport"
)

// Company reads and parses the company master details.
func (r *Reader) Company(ctx context.Context) (*records.Company, error) {
	resp, err := r.Request(ctx, protocol.ReportCompanyInfo, nil)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("company info read failed: %s", resp.ErrorMessage)
	}

	doc, err := r.validator.Parse(resp.Data)
	if err != nil {
		return nil, err
	}
	return records.ParseCompany(doc)
}

// Ledgers reads and parses the full ledger list.
func (r *Reader) Ledgers(ctx context.Context) ([]records.Ledger, error) {
	resp, err := r.Request(ctx, protocol.ReportLedgerList, nil)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("ledger list read failed: %s", resp.ErrorMessage)
	}

	doc, err := r.validator.Parse(resp.Data)
	if err != nil {
		return nil, err
	}
	return records.ParseLedgers(doc), nil
}

// LedgerDetails reads one ledger account by name.
func (r *Reader) LedgerDetails(ctx context.Context, ledgerName string) (*transport.Response, error) {
	return r.Request(ctx, protocol.ReportLedgerDetails, protocol.Params{
		"ledger_name": ledgerName,
	})
}

// Vouchers reads and parses vouchers within a date range.
func (r *Reader) Vouchers(ctx context.Context, from, to time.Time) ([]records.Voucher, error) {
	resp, err := r.Request(ctx, protocol.ReportVoucherList, protocol.DateRangeParams(from, to))
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("voucher list read failed: %s", resp.ErrorMessage)
	}

	doc, err := r.validator.Parse(resp.Data)
	if err != nil {
		return nil, err
	}
	return records.ParseVouchers(doc), nil
}

// VoucherDetails reads one voucher by number and type.
func (r *Reader) VoucherDetails(ctx context.Context, number, voucherType string) (*transport.Response, error) {
	return r.Request(ctx, protocol.ReportVoucherDetails, protocol.Params{
		"voucher_number": number,
		"voucher_type":   voucherType,
	})
}

// DayBook reads the day book for a date range.
func (r *Reader) DayBook(ctx context.Context, from, to time.Time) (*transport.Response, error) {
	return r.Request(ctx, protocol.ReportDayBook, protocol.DateRangeParams(from, to))
}

// BalanceSheet reads the balance sheet report.
func (r *Reader) BalanceSheet(ctx context.Context) (*transport.Response, error) {
	return r.Request(ctx, protocol.ReportBalanceSheet, nil)
}
