package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/realmledger/internal/storage"
	"github.com/mcoot/realmledger/internal/storage/storagetest"
)

func TestDurableSuite(t *testing.T) {
	suite.Run(t, &storagetest.DurableSuite{
		NewStore: func() storage.DurableStore { return NewDurable() },
	})
}

func TestSignerSuite(t *testing.T) {
	suite.Run(t, &storagetest.SignerSuite{
		NewStore: func() storage.SignerStore { return NewDurable() },
	})
}

func TestFastSuite(t *testing.T) {
	suite.Run(t, &storagetest.FastSuite{
		NewStore: func() storage.FastStore { return NewFast() },
	})
}
