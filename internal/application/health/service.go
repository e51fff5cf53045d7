package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keys for the request counters written by the health marker middleware.
const (
	KeyReqTotal  = "health:global:req_total"
	KeyReqErrors = "health:global:req_errors"
	KeyResTime   = "health:global:res_time_total"
	KeyResCount  = "health:global:res_count"
	KeyStartTime = "health:global:start_time"
	KeyLastReq   = "health:global:last_request"
	KeyErrorLog  = "health:global:error_log"

	// ErrorLogSize is how many server errors are kept in KeyErrorLog.
	ErrorLogSize = 50
)

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// Report is the body of GET /health/json.
type Report struct {
	Service      string               `json:"service"`
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	AllocMB    int `json:"allocMb"`
	HeapUsedMB int `json:"heapUsedMb"`
}

type TrafficInfo struct {
	TotalRequests   int                    `json:"totalRequests"`
	SuccessCount    int                    `json:"successCount"`
	FailedCount     int                    `json:"failedCount"`
	SuccessRate     string                 `json:"successRate"`
	AvgResponseTime string                 `json:"avgResponseTime"`
	LastRequest     map[string]interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// Service reads and resets the request counters kept in Redis.
type Service struct {
	Rdb         *redis.Client
	DB          DBPinger
	ServiceName string
	Now         func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Collect gathers dependency status, runtime figures and traffic counters.
// Status is "ok" only when both the database and Redis answer.
func (s *Service) Collect(ctx context.Context) Report {
	report := Report{
		Service:      s.ServiceName,
		Dependencies: make(map[string]DepStatus),
	}

	dbStatus := "disconnected"
	var dbPingMs *int64
	if s.DB != nil {
		start := time.Now()
		if err := s.DB.Ping(); err == nil {
			ms := time.Since(start).Milliseconds()
			dbPingMs = &ms
			dbStatus = "connected"
		} else {
			dbStatus = "error"
		}
	}
	report.Dependencies["database"] = DepStatus{Status: dbStatus, PingMs: dbPingMs}

	redisStatus := "disconnected"
	var redisPingMs *int64
	stats := TrafficInfo{AvgResponseTime: "0", SuccessRate: "100"}
	startMs := s.now().UnixMilli()

	if s.Rdb != nil {
		start := time.Now()
		if err := s.Rdb.Ping(ctx).Err(); err == nil {
			ms := time.Since(start).Milliseconds()
			redisPingMs = &ms
			redisStatus = "connected"
			startMs = s.readTraffic(ctx, &stats, startMs)
		} else {
			redisStatus = "error"
		}
	}
	report.Dependencies["redis"] = DepStatus{Status: redisStatus, PingMs: redisPingMs}
	report.Traffic = stats

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := (s.now().UnixMilli() - startMs) / 1000
	if uptime < 0 {
		uptime = 0
	}
	report.Runtime = RuntimeInfo{
		UptimeSeconds: uptime,
		Memory:        MemoryInfo{AllocMB: int(m.Alloc / 1024 / 1024), HeapUsedMB: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	if dbStatus == "connected" && redisStatus == "connected" {
		report.Status = "ok"
	} else {
		report.Status = "issue"
	}
	return report
}

func (s *Service) readTraffic(ctx context.Context, stats *TrafficInfo, startMs int64) int64 {
	vals, err := s.Rdb.MGet(ctx, KeyReqTotal, KeyReqErrors, KeyResTime, KeyResCount, KeyStartTime, KeyLastReq).Result()
	if err != nil {
		return startMs
	}
	str := func(i int) string {
		v, _ := vals[i].(string)
		return v
	}

	if t, err := strconv.ParseInt(str(4), 10, 64); err == nil {
		startMs = t
	} else {
		s.Rdb.SetNX(ctx, KeyStartTime, startMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(str(0))
	stats.FailedCount, _ = strconv.Atoi(str(1))
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(str(2), 64)
	count, _ := strconv.Atoi(str(3))
	if count > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(count), 'f', 2, 64)
	}
	if last := str(5); last != "" {
		var lastReq map[string]interface{}
		if json.Unmarshal([]byte(last), &lastReq) == nil {
			stats.LastRequest = lastReq
		}
	}
	return startMs
}

// Reset clears all counters and restarts the uptime clock.
func (s *Service) Reset(ctx context.Context) error {
	keys := []string{KeyReqTotal, KeyReqErrors, KeyResTime, KeyResCount, KeyStartTime, KeyLastReq, KeyErrorLog}
	if err := s.Rdb.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	return s.Rdb.Set(ctx, KeyStartTime, strconv.FormatInt(s.now().UnixMilli(), 10), 0).Err()
}

// Errors returns the most recent server errors, newest first.
func (s *Service) Errors(ctx context.Context) ([]map[string]interface{}, error) {
	entries, err := s.Rdb.LRange(ctx, KeyErrorLog, 0, ErrorLogSize-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		var m map[string]interface{}
		if json.Unmarshal([]byte(e), &m) == nil && m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}
