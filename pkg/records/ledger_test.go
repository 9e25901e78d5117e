package records

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tallykit/tallygate/internal/testutil"
)

func TestParseLedgers(t *testing.T) {
	ledgers := ParseLedgers(parseDoc(t, testutil.LedgerListXML))
	if len(ledgers) != 2 {
		t.Fatalf("parsed %d ledgers, want 2", len(ledgers))
	}

	cash := ledgers[0]
	if cash.Name != "Cash" {
		t.Fatalf("first ledger = %q, want Cash (sorted by name)", cash.Name)
	}
	if cash.ParentGroup != "Cash-in-Hand" {
		t.Errorf("parent group = %q", cash.ParentGroup)
	}
	if !cash.ClosingBalance.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("closing balance = %s, want 1500", cash.ClosingBalance)
	}
	if cash.BalanceSide != SideDebit {
		t.Errorf("balance side = %s, want debit", cash.BalanceSide)
	}

	sales := ledgers[1]
	if sales.Name != "Sales Account" {
		t.Fatalf("second ledger = %q", sales.Name)
	}
	if !sales.ClosingBalance.Equal(decimal.NewFromInt(42000)) {
		t.Errorf("closing balance = %s, want 42000", sales.ClosingBalance)
	}
	if sales.BalanceSide != SideCredit {
		t.Errorf("balance side = %s, want credit (negative balance)", sales.BalanceSide)
	}
}

func TestParseLedgersTallyMessageShape(t *testing.T) {
	raw := `<ENVELOPE>
  <BODY>
    <IMPORTDATA>
      <REQUESTDATA>
        <TALLYMESSAGE vchtype="Ledger">
          <LEDGERNAME>HDFC Bank</LEDGERNAME>
          <PARENT>Bank Accounts</PARENT>
          <OPENINGBALANCE>25000.00 Dr</OPENINGBALANCE>
          <CLOSINGBALANCE>31000.00 Dr</CLOSINGBALANCE>
          <ISDEEMEDPOSITIVE>Yes</ISDEEMEDPOSITIVE>
        </TALLYMESSAGE>
      </REQUESTDATA>
    </IMPORTDATA>
  </BODY>
</ENVELOPE>`

	ledgers := ParseLedgers(parseDoc(t, raw))
	if len(ledgers) != 1 {
		t.Fatalf("parsed %d ledgers, want 1", len(ledgers))
	}

	ledger := ledgers[0]
	if ledger.Name != "HDFC Bank" {
		t.Errorf("name = %q", ledger.Name)
	}
	if !ledger.OpeningBalance.Equal(decimal.NewFromInt(25000)) {
		t.Errorf("opening balance = %s", ledger.OpeningBalance)
	}
	if !ledger.ClosingBalance.Equal(decimal.NewFromInt(31000)) {
		t.Errorf("closing balance = %s", ledger.ClosingBalance)
	}
	if !ledger.IsDeemedPositive {
		t.Error("deemed positive flag not parsed")
	}
}

func TestParseLedgersDisplayNameShape(t *testing.T) {
	// Display reports list names as bare DSP_NAME elements.
	raw := `<ENVELOPE>
  <BODY>
    <DATA>
      <DSP_NAME>Cash</DSP_NAME>
      <DSP_NAME>Sundry Debtors</DSP_NAME>
      <DSP_NAME>  </DSP_NAME>
    </DATA>
  </BODY>
</ENVELOPE>`

	ledgers := ParseLedgers(parseDoc(t, raw))
	if len(ledgers) != 2 {
		t.Fatalf("parsed %d ledgers, want 2 (blank names skipped)", len(ledgers))
	}
	if ledgers[0].Name != "Cash" || ledgers[1].Name != "Sundry Debtors" {
		t.Errorf("names = %q, %q", ledgers[0].Name, ledgers[1].Name)
	}
}

func TestParseLedgersDeduplicates(t *testing.T) {
	raw := `<ENVELOPE>
  <BODY>
    <DATA>
      <LEDGER><NAME>Cash</NAME><CLOSINGBALANCE>100.00</CLOSINGBALANCE></LEDGER>
      <LEDGER><NAME>Cash</NAME><CLOSINGBALANCE>200.00</CLOSINGBALANCE></LEDGER>
    </DATA>
  </BODY>
</ENVELOPE>`

	ledgers := ParseLedgers(parseDoc(t, raw))
	if len(ledgers) != 1 {
		t.Fatalf("parsed %d ledgers, want 1 after de-duplication", len(ledgers))
	}
	// First occurrence wins.
	if !ledgers[0].ClosingBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("closing balance = %s, want 100", ledgers[0].ClosingBalance)
	}
}
