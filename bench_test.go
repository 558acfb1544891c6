package mologs

import "testing"

// setupBenchmark routes records to a no-op sink so benchmarks measure the
// logging path, not the terminal.
func setupBenchmark(b *testing.B, cfg Config) {
	b.Helper()
	configMu.Lock()
	prev := active.Load()
	active.Store(&loggerState{cfg: cfg, main: NopSink{}})
	configMu.Unlock()
	b.Cleanup(func() {
		configMu.Lock()
		active.Store(prev)
		configMu.Unlock()
	})
}

func BenchmarkNote(b *testing.B) {
	b.Run("NoParams", func(b *testing.B) {
		setupBenchmark(b, Config{StaticTemplate: true})
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			Note("benchmark message")
		}
	})

	b.Run("WithParams", func(b *testing.B) {
		setupBenchmark(b, Config{StaticTemplate: true})
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			Note("user {{user}} scored {{score}}", Params{
				"user":  "test",
				"score": 98.6,
			})
		}
	})

	b.Run("Traced", func(b *testing.B) {
		setupBenchmark(b, Config{Trace: true, StaticTemplate: true})
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			Note("traced benchmark message {{i}}", Params{"i": i})
		}
	})
}

func BenchmarkParseTemplate(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = ParseTemplate("{{name|capitalize}} is {{age}} years old ({{ratio|percent(digits=2)}})")
	}
}

func BenchmarkExpandTemplate(b *testing.B) {
	params := Params{"name": "lahnakoski", "age": 40, "ratio": 0.0123}
	// warm the parse cache so this measures expansion alone
	_ = ExpandTemplate("{{name|capitalize}} is {{age}} years old ({{ratio|percent(digits=2)}})", params)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ExpandTemplate("{{name|capitalize}} is {{age}} years old ({{ratio|percent(digits=2)}})", params)
	}
}

func BenchmarkWrap(b *testing.B) {
	cause := Error("inner failure", nil)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Error("outer failure", cause)
	}
}
