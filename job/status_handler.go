package job

import (
	"net/http"

	json "github.com/bytedance/sonic"
)

// StatusHandler 以 JSON 返回任务状态, 带 name 参数时只返回对应任务
func (s *CronScheduler) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body any
		if name := r.URL.Query().Get("name"); name != "" {
			status, err := s.GetJobStatus(name)
			if err != nil {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			body = status
		} else {
			body = s.GetJobStatuses()
		}

		data, err := json.Marshal(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(data)
	})
}
