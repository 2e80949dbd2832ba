package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Render command (info)
		"Rendering %d frames to %s":       "%d フレームを %s にレンダリング中",
		"Output saved to %s":              "出力を %s に保存しました",
		"Render completed successfully":   "レンダリングが正常に完了しました",
		"Interrupted, shutting down...":   "中断されました。シャットダウン中...",
		"Waiting for cache preroll":       "キャッシュのプリロールを待機中",
		"Playback cache ready":            "再生キャッシュの準備ができました",

		// Prefetch engine
		"Prefetch worker started":         "プリフェッチワーカーを開始しました",
		"Prefetch worker stopped":         "プリフェッチワーカーを停止しました",
		"Failed to fetch frame %d: %s":    "フレーム %d の取得に失敗しました: %s",

		// Timeline
		"Timeline opened: %d clips, %d frames": "タイムラインを開きました: %d クリップ, %d フレーム",

		// Writer
		"Spherical metadata attached: %s": "全天球メタデータを付与しました: %s",
		"Video muxed: %d bytes":           "動画の多重化が完了しました: %d バイト",

		// Errors
		"Failed to open timeline: %s":     "タイムラインのオープンに失敗しました: %s",
		"Failed to write output: %s":      "出力の書き込みに失敗しました: %s",
	})
}
