package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// writeReport renders the fixed-column text report and returns its path.
// The file name is backtest_<wave>_<YYYYMMDD_HHMMSS>.txt.
func writeReport(dir string, result *Result, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("backtest_%d_%s.txt", result.Summary.WaveNumber, now.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	var b strings.Builder
	renderReport(&b, result, now)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func renderReport(b *strings.Builder, result *Result, now time.Time) {
	s := result.Summary
	line := strings.Repeat("=", 100)
	thin := strings.Repeat("-", 100)

	fmt.Fprintf(b, "%s\n", line)
	fmt.Fprintf(b, "ОТЧЕТ ПО БЭКТЕСТУ ВОЛНЫ %d\n", s.WaveNumber)
	fmt.Fprintf(b, "Сформирован: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(b, "%s\n\n", line)

	fmt.Fprintf(b, "ОБЩАЯ ИНФОРМАЦИЯ\n%s\n", thin)
	fmt.Fprintf(b, "%-40s %d\n", "Номер волны:", s.WaveNumber)
	fmt.Fprintf(b, "%-40s %d\n", "Фактических дней:", s.OriginalDays)
	fmt.Fprintf(b, "%-40s %.1f ч\n", "Фактическое время (wall clock):", s.FactWallClockS/3600)
	fmt.Fprintf(b, "%-40s %.1f ч\n", "Фактическое активное время:", s.FactActiveS/3600)
	fmt.Fprintf(b, "%-40s %d\n", "Работников:", len(s.Workers))
	fmt.Fprintf(b, "\n")

	fmt.Fprintf(b, "РЕЗУЛЬТАТЫ СРАВНЕНИЯ\n%s\n", thin)
	fmt.Fprintf(b, "%-40s %d\n", "Оптимизированных дней:", s.OptimizedDays)
	fmt.Fprintf(b, "%-40s %d\n", "Сэкономлено дней:", s.DaysSaved)
	fmt.Fprintf(b, "%-40s %.1f ч\n", "Оптимизированное активное время:", s.OptActiveS/3600)
	fmt.Fprintf(b, "%-40s %.1f %%\n", "Улучшение:", s.ImprovementPct)
	fmt.Fprintf(b, "\n")

	fmt.Fprintf(b, "РАЗБИВКА ПО ДНЯМ\n%s\n", thin)
	fmt.Fprintf(b, "%-12s %8s %12s %12s %8s %10s %12s %12s %10s\n",
		"Дата", "Рабочих", "Факт, палл", "Опт, палл", "Дельта", "Буфер", "Факт, ч", "Опт, ч", "Улучш, %")
	for _, day := range s.Days {
		fmt.Fprintf(b, "%-12s %8d %12d %12d %8d %10.2f %12.1f %12.1f %10.1f\n",
			day.Date.Format("2006-01-02"), day.Workers, day.FactPallets, day.OptPallets,
			day.Delta, day.BufferLevelEnd, day.FactActiveS/3600, day.OptActiveS/3600, day.ImprovementPct)
	}
	fmt.Fprintf(b, "\n")

	fmt.Fprintf(b, "РАЗБИВКА ПО РАБОТНИКАМ\n%s\n", thin)
	fmt.Fprintf(b, "%-12s %-24s %-10s %12s %12s %12s %12s\n",
		"Код", "Имя", "Роль", "Факт задач", "Опт задач", "Факт, ч", "Опт, ч")
	for _, w := range s.Workers {
		fmt.Fprintf(b, "%-12s %-24s %-10s %12d %12d %12.1f %12.1f\n",
			w.WorkerID, w.WorkerName, w.Role, w.FactTasks, w.OptTasks, w.FactActiveS/3600, w.OptActiveS/3600)
	}
	fmt.Fprintf(b, "\n")

	fmt.Fprintf(b, "ИСТОЧНИКИ ОЦЕНКИ ВРЕМЕНИ\n%s\n", thin)
	for _, source := range []string{"actual", "route_stats", "picker_product", "default"} {
		count := 0
		for src, n := range s.SourceCounts {
			if string(src) == source {
				count = n
			}
		}
		fmt.Fprintf(b, "%-40s %d\n", source+":", count)
	}
	fmt.Fprintf(b, "\n")

	fmt.Fprintf(b, "ФАКТИЧЕСКИЙ ГРАФИК\n%s\n", thin)
	renderEvents(b, result.Events, TimelineFact)
	fmt.Fprintf(b, "\n")

	fmt.Fprintf(b, "ОПТИМИЗИРОВАННЫЙ ПЛАН\n%s\n", thin)
	renderEvents(b, result.Events, TimelineOptimized)
}

func renderEvents(b *strings.Builder, events []ScheduleEvent, timeline Timeline) {
	fmt.Fprintf(b, "%-12s %-20s %-10s %-20s %-20s %10s %8s %10s\n",
		"Код", "Работник", "Роль", "Начало", "Конец", "Длит, с", "Вес, кг", "Переход, с")
	for _, e := range events {
		if e.Timeline != timeline {
			continue
		}
		fmt.Fprintf(b, "%-12s %-20s %-10s %-20s %-20s %10.0f %8.1f %10.0f\n",
			e.WorkerID, e.WorkerName, e.Role,
			e.Start.Format("2006-01-02 15:04:05"), e.End.Format("2006-01-02 15:04:05"),
			e.DurationS, e.WeightKg, e.TransitionS)
	}
}
