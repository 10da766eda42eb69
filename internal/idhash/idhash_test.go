package idhash

import (
	"testing"

	"equity-events-lab/internal/domain"
)

func baseRecord() *domain.EventRecord {
	ex := domain.MustParseDate("2014-01-15")
	return &domain.EventRecord{
		Dataset:       "cash_dividends",
		AssetID:       "EQ-0000",
		KnowledgeDate: domain.MustParseDate("2014-01-05"),
		EventDates:    map[string]*domain.Date{"ex_date": &ex, "pay_date": nil},
		Payload:       map[string]float64{"cash_amount": 1.5},
	}
}

func TestComputeRecordID_Deterministic(t *testing.T) {
	a := ComputeRecordID(baseRecord())
	b := ComputeRecordID(baseRecord())
	if a != b {
		t.Errorf("same record hashed differently: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestComputeRecordID_SensitiveToIdentity(t *testing.T) {
	base := ComputeRecordID(baseRecord())

	r := baseRecord()
	r.AssetID = "EQ-0001"
	if ComputeRecordID(r) == base {
		t.Error("asset change should change the id")
	}

	r = baseRecord()
	d := domain.MustParseDate("2014-01-16")
	r.EventDates["ex_date"] = &d
	if ComputeRecordID(r) == base {
		t.Error("event date change should change the id")
	}

	r = baseRecord()
	r.Payload["cash_amount"] = 2
	if ComputeRecordID(r) == base {
		t.Error("payload change should change the id")
	}

	// Nil vs populated event date must differ
	r = baseRecord()
	pay := domain.MustParseDate("2014-01-20")
	r.EventDates["pay_date"] = &pay
	if ComputeRecordID(r) == base {
		t.Error("filling a nil event date should change the id")
	}
}
