package fetch

import (
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/FPGAwars/verible-packager/internal/utils/logger"
)

// VerifyDetachedSignature checks a detached OpenPGP signature for the
// downloaded archive against an armored public key file. Armored and
// binary signatures are both accepted.
func VerifyDetachedSignature(archivePath, sigPath, keyFile string) error {
	log := logger.Logger()

	keyring, err := loadKeyring(keyFile)
	if err != nil {
		return err
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	sig, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sig.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, archive, sig, nil)
	if err != nil {
		if _, serr := archive.Seek(0, io.SeekStart); serr != nil {
			return fmt.Errorf("rewind archive: %w", serr)
		}
		if _, serr := sig.Seek(0, io.SeekStart); serr != nil {
			return fmt.Errorf("rewind signature: %w", serr)
		}
		_, err = openpgp.CheckDetachedSignature(keyring, archive, sig, nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature for %s: %w", archivePath, err)
	}

	log.Infof("signature verified for %s", archivePath)
	return nil
}

func loadKeyring(keyFile string) (openpgp.EntityList, error) {
	f, err := os.Open(keyFile)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer f.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		if _, serr := f.Seek(0, io.SeekStart); serr != nil {
			return nil, fmt.Errorf("rewind keyring: %w", serr)
		}
		keyring, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}
	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring %s is empty", keyFile)
	}
	return keyring, nil
}
