package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// StoreProvider exposes the persistent stores a repository factory builds.
type StoreProvider interface {
	ChannelStore() ChannelStore
	RemoteStore() RemoteStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

// RemoteCacheConfigurer is implemented by repository factories that can put
// registry lookups behind a cache. NewService passes the resolved
// remote_cache settings before it asks the factory for stores.
type RemoteCacheConfigurer interface {
	ConfigureRemoteCache(cfg RemoteCacheConfig) error
}

type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	channelStore      ChannelStore
	remoteStore       RemoteStore
	transportResolver TransportResolver
	envelopeEncoder   EnvelopeEncoder
	now               func() time.Time
}

type ServiceDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	ChannelStore      ChannelStore
	RemoteStore       RemoteStore
	TransportResolver TransportResolver
	EnvelopeEncoder   EnvelopeEncoder
}

func WithPersistenceClient(client any) Option {
	return func(b *serviceBuilder) {
		b.persistenceClient = client
	}
}

func WithRepositoryFactory(factory any) Option {
	return func(b *serviceBuilder) {
		b.repositoryFactory = factory
	}
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("lzreceiver", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("lzreceiver"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, MapError(err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, MapError(err)
	}

	if (builder.channelStore == nil || builder.remoteStore == nil) && builder.repositoryFactory != nil {
		if configurer, ok := builder.repositoryFactory.(RemoteCacheConfigurer); ok && builder.remoteStore == nil {
			if cacheErr := configurer.ConfigureRemoteCache(finalConfig.RemoteCache); cacheErr != nil {
				return nil, MapError(cacheErr)
			}
		}
		var stores StoreProvider
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			built, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, MapError(buildErr)
			}
			stores = built
		} else if direct, ok := builder.repositoryFactory.(StoreProvider); ok {
			stores = direct
		}
		if stores != nil {
			if builder.channelStore == nil {
				builder.channelStore = stores.ChannelStore()
			}
			if builder.remoteStore == nil {
				builder.remoteStore = stores.RemoteStore()
			}
		}
	}
	if builder.channelStore == nil {
		builder.channelStore = NewMemoryChannelStore()
	}
	if builder.remoteStore == nil {
		builder.remoteStore = NewMemoryRemoteStore()
	}

	return &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		channelStore:      builder.channelStore,
		remoteStore:       builder.remoteStore,
		transportResolver: builder.transportResolver,
		envelopeEncoder:   builder.envelopeEncoder,
		now:               builder.now,
	}, nil
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Logger() Logger {
	if s == nil {
		return glog.Nop()
	}
	return s.logger
}

func (s *Service) MetricsRecorder() MetricsRecorder {
	if s == nil || s.metricsRecorder == nil {
		return NopMetricsRecorder{}
	}
	return s.metricsRecorder
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:            s.logger,
		LoggerProvider:    s.loggerProvider,
		MetricsRecorder:   s.metricsRecorder,
		PersistenceClient: s.persistenceClient,
		RepositoryFactory: s.repositoryFactory,
		ConfigProvider:    s.configProvider,
		OptionsResolver:   s.optionsResolver,
		ChannelStore:      s.channelStore,
		RemoteStore:       s.remoteStore,
		TransportResolver: s.transportResolver,
		EnvelopeEncoder:   s.envelopeEncoder,
	}
}

// InitChannel creates the channel record. The channel address is derived
// from the id and never changes afterwards.
func (s *Service) InitChannel(ctx context.Context, req InitChannelRequest) (channel ChannelState, err error) {
	startedAt := s.now()
	fields := map[string]any{"channel_id": req.ChannelID}
	defer func() {
		s.observeOperation(ctx, startedAt, "channel_init", err, fields)
	}()

	if req.Admin.IsZero() {
		err = badInput("core: channel admin is required", fields)
		return ChannelState{}, err
	}
	ref := strings.TrimSpace(req.TransportRef)
	if ref == "" {
		ref = strings.TrimSpace(s.config.DefaultTransport)
	}
	if s.transportResolver != nil {
		if _, resolveErr := s.transportResolver.Resolve(ref); resolveErr != nil {
			err = WrapReceiveError(resolveErr, ErrorInvalidEndpointSettings, "", map[string]any{"transport_ref": ref})
			return ChannelState{}, err
		}
	}
	channel, err = s.channelStore.Create(ctx, CreateChannelInput{
		ChannelID:    req.ChannelID,
		Address:      ChannelAddress(req.ChannelID),
		Admin:        req.Admin,
		TransportRef: ref,
	})
	if err != nil {
		err = MapError(err)
		return ChannelState{}, err
	}
	fields["channel_address"] = channel.Address.String()
	return channel, nil
}

func (s *Service) GetChannel(ctx context.Context, channelID uint8) (ChannelState, error) {
	if s == nil || s.channelStore == nil {
		return ChannelState{}, NewReceiveError(ErrorInternal, "core: channel store is required", nil)
	}
	channel, err := s.channelStore.Get(ctx, channelID)
	if err != nil {
		return ChannelState{}, MapError(err)
	}
	return channel, nil
}

func (s *Service) IncrementReceived(ctx context.Context, channelID uint8) (ChannelState, error) {
	channel, err := s.channelStore.IncrementReceived(ctx, channelID)
	if err != nil {
		return ChannelState{}, MapError(err)
	}
	return channel, nil
}

func (s *Service) IncrementComposed(ctx context.Context, channelID uint8) (ChannelState, error) {
	channel, err := s.channelStore.IncrementComposed(ctx, channelID)
	if err != nil {
		return ChannelState{}, MapError(err)
	}
	return channel, nil
}

// ResolveTransport returns the endpoint bound to channel, falling back to
// the configured default when the channel carries no reference.
func (s *Service) ResolveTransport(channel ChannelState) (Transport, error) {
	if s == nil || s.transportResolver == nil {
		return nil, NewReceiveError(ErrorInvalidEndpointSettings, "core: transport resolver is not configured", nil)
	}
	ref := strings.TrimSpace(channel.TransportRef)
	if ref == "" {
		ref = strings.TrimSpace(s.config.DefaultTransport)
	}
	transport, err := s.transportResolver.Resolve(ref)
	if err != nil {
		return nil, WrapReceiveError(err, ErrorInvalidEndpointSettings, "", map[string]any{
			"channel_id":    channel.ID,
			"transport_ref": ref,
		})
	}
	if transport == nil {
		return nil, NewReceiveError(ErrorInvalidEndpointSettings, fmt.Sprintf("core: transport %q resolved to nil", ref), nil)
	}
	return transport, nil
}
