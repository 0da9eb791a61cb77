package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/storefront/pkg/config"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const leaseTTL = 30

type ServiceDiscovery struct {
	client *clientv3.Client
	config *config.EtcdConfig
}

type ServiceInstance struct {
	Name string
	Host string
	Port int
	// Path is appended to the instance address when building a URL, e.g. "/api".
	Path string
}

func (i *ServiceInstance) Addr() string {
	return fmt.Sprintf("%s:%d", i.Host, i.Port)
}

func NewServiceDiscovery(cfg *config.EtcdConfig) (*ServiceDiscovery, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &ServiceDiscovery{
		client: cli,
		config: cfg,
	}, nil
}

func instanceKey(prefix string, instance *ServiceInstance) string {
	return fmt.Sprintf("%s%s/%s", prefix, instance.Name, instance.Addr())
}

// instanceValue is the base URL other services use to reach the instance.
func instanceValue(instance *ServiceInstance) string {
	return "http://" + instance.Addr() + instance.Path
}

// Register publishes the instance under a 30s lease kept alive until ctx ends.
func (sd *ServiceDiscovery) Register(ctx context.Context, instance *ServiceInstance) error {
	lease, err := sd.client.Grant(ctx, leaseTTL)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	_, err = sd.client.Put(ctx, instanceKey(sd.config.Prefix, instance), instanceValue(instance), clientv3.WithLease(lease.ID))
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	ch, kaerr := sd.client.KeepAlive(ctx, lease.ID)
	if kaerr != nil {
		return fmt.Errorf("failed to keep alive: %w", kaerr)
	}

	go func() {
		for range ch {
		}
	}()

	return nil
}

// Discover returns the base URLs registered for serviceName.
func (sd *ServiceDiscovery) Discover(ctx context.Context, serviceName string) ([]string, error) {
	key := fmt.Sprintf("%s%s/", sd.config.Prefix, serviceName)

	resp, err := sd.client.Get(ctx, key, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to discover service: %w", err)
	}

	var urls []string
	for _, kv := range resp.Kvs {
		if v := strings.TrimSpace(string(kv.Value)); v != "" {
			urls = append(urls, v)
		}
	}
	return urls, nil
}

// ResolveURL returns the first registered URL for serviceName, or fallback if
// sd is nil, the lookup fails or nothing is registered.
func (sd *ServiceDiscovery) ResolveURL(ctx context.Context, serviceName, fallback string) string {
	if sd == nil {
		return fallback
	}
	urls, err := sd.Discover(ctx, serviceName)
	if err != nil || len(urls) == 0 {
		return fallback
	}
	return urls[0]
}

func (sd *ServiceDiscovery) Deregister(ctx context.Context, instance *ServiceInstance) error {
	_, err := sd.client.Delete(ctx, instanceKey(sd.config.Prefix, instance))
	if err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}
	return nil
}

func (sd *ServiceDiscovery) Close() error {
	return sd.client.Close()
}
