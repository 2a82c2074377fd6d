package bluetooth

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"tinygo.org/x/bluetooth"

	"github.com/nerrad567/blescan-node/internal/infrastructure/config"
	"github.com/nerrad567/blescan-node/internal/settings"
)

// serviceRadio is the part of *bluetooth.Adapter the provisioner drives.
type serviceRadio interface {
	AddService(service *bluetooth.Service) error
}

// advertiser is implemented by *bluetooth.Advertisement.
type advertiser interface {
	Configure(options bluetooth.AdvertisementOptions) error
	Start() error
	Stop() error
}

// Provisioner exposes the write-only configuration service.
//
// Each completed write to one of the four characteristics is delivered to the
// OnWrite callback with the settings key it maps to. Values longer than
// bluetooth.max_write_length are truncated.
type Provisioner struct {
	radio  serviceRadio
	adv    advertiser
	cfg    config.BluetoothConfig
	logger Logger

	serviceUUID bluetooth.UUID
	slots       []slotUUID

	cbMu    sync.RWMutex
	onWrite func(key, value string)

	mu          sync.Mutex
	registered  bool
	advertising bool
}

type slotUUID struct {
	key  string
	uuid bluetooth.UUID
}

// NewProvisioner parses the configured UUIDs for an enabled adapter.
func NewProvisioner(adapter *bluetooth.Adapter, cfg config.BluetoothConfig, logger Logger) (*Provisioner, error) {
	return newProvisioner(adapter, adapter.DefaultAdvertisement(), cfg, logger)
}

func newProvisioner(radio serviceRadio, adv advertiser, cfg config.BluetoothConfig, logger Logger) (*Provisioner, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	serviceUUID, err := parseUUID("service_uuid", cfg.ServiceUUID)
	if err != nil {
		return nil, err
	}

	keys := []struct {
		key, field, value string
	}{
		{settings.KeySSID, "ssid_uuid", cfg.SSIDUUID},
		{settings.KeyPassword, "password_uuid", cfg.PasswordUUID},
		{settings.KeyBroker, "broker_uuid", cfg.BrokerUUID},
		{settings.KeyBoardName, "board_name_uuid", cfg.BoardNameUUID},
	}
	slots := make([]slotUUID, 0, len(keys))
	for _, k := range keys {
		u, err := parseUUID(k.field, k.value)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slotUUID{key: k.key, uuid: u})
	}

	return &Provisioner{
		radio:       radio,
		adv:         adv,
		cfg:         cfg,
		logger:      logger,
		serviceUUID: serviceUUID,
		slots:       slots,
	}, nil
}

func parseUUID(field, value string) (bluetooth.UUID, error) {
	u, err := bluetooth.ParseUUID(value)
	if err != nil {
		return bluetooth.UUID{}, fmt.Errorf("%w: %s %q: %w", ErrInvalidUUID, field, value, err)
	}
	return u, nil
}

// SetOnWrite registers the callback for completed characteristic writes.
func (p *Provisioner) SetOnWrite(callback func(key, value string)) {
	p.cbMu.Lock()
	p.onWrite = callback
	p.cbMu.Unlock()
}

// Register adds the GATT service and configures the advertisement payload.
// It does not start advertising.
func (p *Provisioner) Register() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.registered {
		return nil
	}

	service := &bluetooth.Service{UUID: p.serviceUUID}
	for _, slot := range p.slots {
		service.Characteristics = append(service.Characteristics, bluetooth.CharacteristicConfig{
			UUID:       slot.uuid,
			Flags:      bluetooth.CharacteristicWritePermission | bluetooth.CharacteristicWriteWithoutResponsePermission,
			WriteEvent: p.writeHandler(slot.key),
		})
	}
	if err := p.radio.AddService(service); err != nil {
		return fmt.Errorf("adding provisioning service: %w", err)
	}

	err := p.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    p.cfg.LocalName,
		ServiceUUIDs: []bluetooth.UUID{p.serviceUUID},
	})
	if err != nil {
		return fmt.Errorf("configuring advertisement: %w", err)
	}

	p.registered = true
	p.logger.Info("provisioning service registered",
		"local_name", p.cfg.LocalName, "service", p.serviceUUID.String())
	return nil
}

// StartAdvertising makes the service discoverable. Calling it while already
// advertising is a no-op.
func (p *Provisioner) StartAdvertising() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.registered {
		return ErrNotRegistered
	}
	if p.advertising {
		return nil
	}
	if err := p.adv.Start(); err != nil {
		return fmt.Errorf("starting advertisement: %w", err)
	}
	p.advertising = true
	p.logger.Info("provisioning advertising started", "local_name", p.cfg.LocalName)
	return nil
}

// StopAdvertising hides the service. Calling it while not advertising is a no-op.
func (p *Provisioner) StopAdvertising() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.advertising {
		return nil
	}
	if err := p.adv.Stop(); err != nil {
		return fmt.Errorf("stopping advertisement: %w", err)
	}
	p.advertising = false
	p.logger.Info("provisioning advertising stopped")
	return nil
}

// IsAdvertising reports whether the service is currently discoverable.
func (p *Provisioner) IsAdvertising() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.advertising
}

func (p *Provisioner) writeHandler(key string) func(bluetooth.Connection, int, []byte) {
	return func(_ bluetooth.Connection, offset int, value []byte) {
		if offset != 0 {
			// Prepared (long) writes are not supported.
			p.logger.Warn("ignoring offset write", "key", key, "offset", offset)
			return
		}
		v := clampWrite(value, p.cfg.MaxWriteLength)
		p.logger.Debug("provisioning write", "key", key, "length", len(v))

		p.cbMu.RLock()
		fn := p.onWrite
		p.cbMu.RUnlock()
		if fn != nil {
			fn(key, v)
		}
	}
}

// clampWrite converts a characteristic value to a string of at most limit bytes,
// cutting before a multi-byte character rather than through it.
// A non-positive limit disables truncation.
func clampWrite(value []byte, limit int) string {
	if limit > 0 && len(value) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut]
	}
	return string(value)
}
