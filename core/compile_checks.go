package core

var (
	_ ChannelStore    = (*MemoryChannelStore)(nil)
	_ RemoteStore     = (*MemoryRemoteStore)(nil)
	_ ClearLedger     = (*MemoryClearLedger)(nil)
	_ JobEnqueuer     = (*MemoryJobQueue)(nil)
	_ JobDequeuer     = (*MemoryJobQueue)(nil)
	_ JobDelivery     = (*memoryDelivery)(nil)
	_ MetricsRecorder = NopMetricsRecorder{}
	_ ConfigProvider  = (*CfgxConfigProvider)(nil)
	_ OptionsResolver = GoOptionsResolver{}
	_ RawConfigLoader = StaticRawConfigLoader{}
)
