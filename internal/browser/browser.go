package browser

import "context"

// Page вкладка браузера, переиспользуемая для всех каналов цикла
type Page interface {
	// Render открывает url, ждёт затишья сети и возвращает отрендеренный HTML
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

// Session запущенный браузер. Закрывается на каждом пути выхода.
type Session interface {
	NewPage() (Page, error)
	Close() error
}

type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}
