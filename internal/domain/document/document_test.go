package document

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodgehr/backend/internal/domain/onboarding"
	"github.com/lodgehr/backend/internal/domain/shared"
)

func newUnsignedDocument(t *testing.T) *GeneratedDocument {
	t.Helper()
	doc, err := NewGeneratedDocument(
		uuid.New(),
		onboarding.StepW4Form,
		onboarding.DocTypeW4,
		onboarding.TemplateVersionW4,
		"sha256:initial",
		"documents/"+uuid.NewString()+".pdf",
		nil,
	)
	require.NoError(t, err)
	doc.ClearDomainEvents()
	return doc
}

func validSignature() SignatureRecord {
	return NewSignatureRecord(
		uuid.New(),
		"Maria Santos",
		"203.0.113.20",
		[]byte("png-bytes"),
		"I attest, under penalty of perjury, that the information is true and correct.",
	)
}

func TestNewGeneratedDocument(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		doc, err := NewGeneratedDocument(
			uuid.New(), onboarding.StepI9Section1, onboarding.DocTypeI9,
			onboarding.TemplateVersionI9, "sha256:abc", "documents/x.pdf",
			[]string{"nickname"},
		)
		require.NoError(t, err)
		assert.Equal(t, StatusUnsigned, doc.Status)
		assert.False(t, doc.IsSigned())
		assert.Equal(t, []string{"nickname"}, doc.UnmappedFields)

		events := doc.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeDocumentGenerated, events[0].EventType())
	})

	t.Run("requires render outputs", func(t *testing.T) {
		_, err := NewGeneratedDocument(uuid.Nil, onboarding.StepW4Form,
			onboarding.DocTypeW4, onboarding.TemplateVersionW4, "h", "ref", nil)
		assert.Error(t, err)
		_, err = NewGeneratedDocument(uuid.New(), onboarding.StepW4Form,
			onboarding.DocTypeW4, onboarding.TemplateVersionW4, "", "ref", nil)
		assert.Error(t, err)
		_, err = NewGeneratedDocument(uuid.New(), onboarding.StepW4Form,
			onboarding.DocTypeW4, "", "h", "ref", nil)
		assert.Error(t, err)
	})
}

func TestGeneratedDocumentSign(t *testing.T) {
	t.Run("finalizes hash and storage reference", func(t *testing.T) {
		doc := newUnsignedDocument(t)
		err := doc.Sign(validSignature(), "sha256:final", "documents/final.pdf")
		require.NoError(t, err)

		assert.True(t, doc.IsSigned())
		assert.Equal(t, "sha256:final", doc.ContentHash)
		assert.Equal(t, "documents/final.pdf", doc.StorageReference)
		require.NotNil(t, doc.Signature)
		assert.False(t, doc.Signature.SignedAt.IsZero())

		events := doc.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeDocumentSigned, events[0].EventType())
	})

	t.Run("second signature rejected and artifact untouched", func(t *testing.T) {
		doc := newUnsignedDocument(t)
		require.NoError(t, doc.Sign(validSignature(), "sha256:final", "documents/final.pdf"))
		firstSigner := doc.Signature.SignerEmployeeID

		err := doc.Sign(validSignature(), "sha256:other", "documents/other.pdf")
		assert.ErrorIs(t, err, shared.ErrAlreadySigned)
		assert.Equal(t, "sha256:final", doc.ContentHash)
		assert.Equal(t, "documents/final.pdf", doc.StorageReference)
		assert.Equal(t, firstSigner, doc.Signature.SignerEmployeeID)
	})

	t.Run("incomplete signature rejected", func(t *testing.T) {
		doc := newUnsignedDocument(t)

		sig := validSignature()
		sig.Artifact = nil
		assert.Error(t, doc.Sign(sig, "sha256:final", "documents/final.pdf"))

		sig = validSignature()
		sig.AttestationText = ""
		assert.Error(t, doc.Sign(sig, "sha256:final", "documents/final.pdf"))

		assert.False(t, doc.IsSigned())
	})
}

func TestGeneratedDocumentSupersede(t *testing.T) {
	t.Run("links replacement once", func(t *testing.T) {
		doc := newUnsignedDocument(t)
		replacement := uuid.New()

		require.NoError(t, doc.MarkSuperseded(replacement))
		assert.True(t, doc.IsSuperseded())
		require.NotNil(t, doc.SupersededBy)
		assert.Equal(t, replacement, *doc.SupersededBy)

		assert.Error(t, doc.MarkSuperseded(uuid.New()))
	})

	t.Run("signed documents stay signed when superseded", func(t *testing.T) {
		doc := newUnsignedDocument(t)
		require.NoError(t, doc.Sign(validSignature(), "sha256:final", "documents/final.pdf"))
		require.NoError(t, doc.MarkSuperseded(uuid.New()))
		assert.True(t, doc.IsSigned())
	})

	t.Run("cannot supersede with itself", func(t *testing.T) {
		doc := newUnsignedDocument(t)
		assert.Error(t, doc.MarkSuperseded(doc.ID))
	})
}
