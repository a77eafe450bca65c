package repository

import (
	"github.com/amirasaad/donation/pkg/domain/beneficiary"
	"github.com/amirasaad/donation/pkg/domain/donation"
)

func mapDonationToModel(d *donation.Donation) *Donation {
	m := &Donation{
		ID:              d.ID,
		Amount:          d.Amount,
		PatientAmount:   d.PatientAmount,
		SupportAmount:   d.SupportAmount,
		Currency:        d.Currency,
		GatewayAmount:   d.GatewayAmount,
		GatewayCurrency: d.GatewayCurrency,
		BeneficiaryID:   d.BeneficiaryID,
		DonorID:         d.DonorID,
		IsAnonymous:     d.IsAnonymous,
		AnonymousName:   d.AnonymousName,
		AnonymousEmail:  d.AnonymousEmail,
		Message:         d.Message,
		PaymentMethod:   string(d.PaymentMethod),
		Provider:        d.Provider,
		AccountNumber:   d.AccountNumber,
		Status:          string(d.Status),
		FailureReason:   d.FailureReason,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		CompletedAt:     d.CompletedAt,
	}
	if d.ExternalReference != "" {
		ref := d.ExternalReference
		m.ExternalReference = &ref
	}
	if d.ProviderTransactionID != "" {
		txn := d.ProviderTransactionID
		m.ProviderTransactionID = &txn
	}
	return m
}

func mapModelToDonation(m *Donation) *donation.Donation {
	d := &donation.Donation{
		ID:              m.ID,
		Amount:          m.Amount,
		PatientAmount:   m.PatientAmount,
		SupportAmount:   m.SupportAmount,
		Currency:        m.Currency,
		GatewayAmount:   m.GatewayAmount,
		GatewayCurrency: m.GatewayCurrency,
		BeneficiaryID:   m.BeneficiaryID,
		DonorID:         m.DonorID,
		IsAnonymous:     m.IsAnonymous,
		AnonymousName:   m.AnonymousName,
		AnonymousEmail:  m.AnonymousEmail,
		Message:         m.Message,
		PaymentMethod:   donation.PaymentMethod(m.PaymentMethod),
		Provider:        m.Provider,
		AccountNumber:   m.AccountNumber,
		Status:          donation.Status(m.Status),
		FailureReason:   m.FailureReason,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		CompletedAt:     m.CompletedAt,
	}
	if m.ExternalReference != nil {
		d.ExternalReference = *m.ExternalReference
	}
	if m.ProviderTransactionID != nil {
		d.ProviderTransactionID = *m.ProviderTransactionID
	}
	return d
}

func mapBeneficiaryToModel(b *beneficiary.Beneficiary) *Beneficiary {
	return &Beneficiary{
		ID:              b.ID,
		FullName:        b.FullName,
		Status:          string(b.Status),
		FundingRequired: b.FundingRequired,
		FundingReceived: b.FundingReceived,
		UpdatedAt:       b.UpdatedAt,
	}
}

func mapModelToBeneficiary(m *Beneficiary) *beneficiary.Beneficiary {
	return &beneficiary.Beneficiary{
		ID:              m.ID,
		FullName:        m.FullName,
		Status:          beneficiary.Status(m.Status),
		FundingRequired: m.FundingRequired,
		FundingReceived: m.FundingReceived,
		UpdatedAt:       m.UpdatedAt,
	}
}
